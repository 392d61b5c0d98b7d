package display

const (
	SOF0            = 0xAA
	SOF1            = 0x55
	CmdShowText     = 0x20
	CmdSetIntensity = 0x21

	LineWidth = 16
)

// Frame is a full LCD snapshot: two text lines and a backlight intensity.
type Frame struct {
	Lines     [2]string
	Intensity float64 // 0..1
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN][CMD][intensity][line0 ×16][line1 ×16][CKS]
//
// Lines are space padded or truncated to LineWidth; non-ASCII bytes become '?'.
func (f Frame) Encode() []byte {
	payload := make([]byte, 0, 1+2*LineWidth)
	payload = append(payload, intensityByte(f.Intensity))
	for _, l := range f.Lines {
		payload = append(payload, lineBytes(l)...)
	}
	return encode(CmdShowText, payload)
}

// IntensityFrame changes only the backlight.
func IntensityFrame(intensity float64) []byte {
	return encode(CmdSetIntensity, []byte{intensityByte(intensity)})
}

func encode(cmd byte, payload []byte) []byte {
	length := byte(len(payload) + 1) // +1 for CMD byte
	cks := length ^ cmd
	for _, b := range payload {
		cks ^= b
	}
	out := make([]byte, 0, len(payload)+5)
	out = append(out, SOF0, SOF1, length, cmd)
	out = append(out, payload...)
	return append(out, cks)
}

func intensityByte(x float64) byte {
	switch {
	case !(x > 0):
		return 0
	case x >= 1:
		return 255
	}
	return byte(x*255 + 0.5)
}

func lineBytes(s string) []byte {
	out := make([]byte, LineWidth)
	for i := range out {
		out[i] = ' '
	}
	for i := 0; i < len(s) && i < LineWidth; i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		out[i] = c
	}
	return out
}
