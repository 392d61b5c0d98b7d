package display

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// Serial is the LCD board's serial link.
type Serial struct {
	port   serial.Port
	name   string
	logger *slog.Logger
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int, logger *slog.Logger) (*Serial, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d baud: %w", name, baud, err)
	}
	logger.Info("serial: port opened", "device", name, "baud", baud)
	return &Serial{port: p, name: name, logger: logger}, nil
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *Serial) Write(b []byte) (int, error) {
	return s.port.Write(b)
}

// Close closes the underlying serial port.
func (s *Serial) Close() error {
	s.logger.Info("serial: closing port", "device", s.name)
	return s.port.Close()
}
