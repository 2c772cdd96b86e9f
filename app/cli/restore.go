package cli

import (
	"fmt"

	actx "go.hackfix.me/romstash/app/context"
)

// The Restore command attaches the last stored images, if any.
type Restore struct{}

// Run the restore command.
func (c *Restore) Run(appCtx *actx.Context) error {
	restored, err := appCtx.Attacher.Restore(appCtx.Ctx)
	for _, key := range restored {
		fmt.Fprintf(appCtx.Stdout, "Restored %s\n", key)
	}
	if err != nil {
		return err
	}
	if len(restored) == 0 {
		appCtx.Logger.Info("no stored assets to restore")
	}

	return nil
}
