// Package generation produces the user-facing text: full answers for
// in-domain questions and short rejections for the rest.
package generation

// Reply is generated text plus whether a fixed fallback replaced it.
type Reply struct {
	Text     string
	Fallback bool
	Err      error
}
