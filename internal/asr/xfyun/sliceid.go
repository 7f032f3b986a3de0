package xfyun

const (
	sliceIDWidth    = 10
	sliceIDAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// SliceIDGenerator yields the fixed-width slice identifiers used by /upload.
// It behaves like an odometer over a-z: the rightmost digit advances first
// and carries leftward. A new generator is needed for every uploaded file.
type SliceIDGenerator struct {
	digits [sliceIDWidth]int
	onWrap func()
}

// NewSliceIDGenerator starts at "aaaaaaaaaa". onWrap, when set, is invoked
// once per full wrap-around.
func NewSliceIDGenerator(onWrap func()) *SliceIDGenerator {
	return &SliceIDGenerator{onWrap: onWrap}
}

// Next returns the current identifier and advances the generator.
func (g *SliceIDGenerator) Next() string {
	out := make([]byte, sliceIDWidth)
	for i, d := range g.digits {
		out[i] = sliceIDAlphabet[d]
	}
	g.advance()
	return string(out)
}

func (g *SliceIDGenerator) advance() {
	for i := sliceIDWidth - 1; i >= 0; i-- {
		g.digits[i]++
		if g.digits[i] < len(sliceIDAlphabet) {
			return
		}
		g.digits[i] = 0
	}
	if g.onWrap != nil {
		g.onWrap()
	}
}
