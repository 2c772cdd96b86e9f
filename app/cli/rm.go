package cli

import (
	actx "go.hackfix.me/romstash/app/context"
)

// The Rm command deletes a stored asset.
type Rm struct {
	Key string `arg:"" help:"The key to delete."`
}

// Run the rm command.
func (c *Rm) Run(appCtx *actx.Context) error {
	return appCtx.Assets.Delete(appCtx.Ctx, c.Key)
}
