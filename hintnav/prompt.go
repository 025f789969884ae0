package hintnav

import (
	"context"

	"github.com/hazyhaar/hintnav/hintnav/internal/prompt"
)

// Prompt drives a Navigator from key presses.
type Prompt = prompt.Prompt

// PromptKey is one key press fed to a Prompt.
type PromptKey = prompt.Key

// PromptMode selects what accepting a Prompt does.
type PromptMode = prompt.Mode

// PromptResult is what a closed Prompt produced.
type PromptResult = prompt.Result

const (
	ModeFollow          = prompt.Follow
	ModeFollowNewBuffer = prompt.FollowNewBuffer
	ModeCopyLink        = prompt.CopyLink
)

// OpenPrompt starts hint mode on n with the mode's selector, or with
// selector when it is not empty.
func (n *Navigator) OpenPrompt(ctx context.Context, mode PromptMode, selector string) (*Prompt, error) {
	return prompt.Open(ctx, n, mode, prompt.WithSelector(selector))
}
