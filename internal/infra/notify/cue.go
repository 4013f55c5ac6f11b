package notify

import (
	"context"
	"io"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

// BellCue rings the terminal bell on w.
type BellCue struct {
	w io.Writer
}

// NewBellCue writes the BEL character to w.
func NewBellCue(w io.Writer) *BellCue {
	return &BellCue{w: w}
}

func (c *BellCue) Play(_ context.Context) error {
	_, err := c.w.Write([]byte{'\a'})
	return err
}

// NopCue is used when the audible cue is disabled.
type NopCue struct{}

func (NopCue) Play(context.Context) error { return nil }

var (
	_ watcher.Cue = (*BellCue)(nil)
	_ watcher.Cue = NopCue{}
)
