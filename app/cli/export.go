package cli

import (
	"errors"
	"fmt"
	"os"

	actx "go.hackfix.me/romstash/app/context"
	aerrors "go.hackfix.me/romstash/app/errors"
	"go.hackfix.me/romstash/store"
)

// The Export command writes the decoded contents of a stored asset.
type Export struct {
	Key string `arg:"" help:"The key of the asset."`
	Out string `short:"o" help:"File to write the asset to. Defaults to stdout."`
}

// Run the export command.
func (c *Export) Run(appCtx *actx.Context) error {
	blob, err := appCtx.Assets.Load(appCtx.Ctx, c.Key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return aerrors.NewRuntimeError(
				fmt.Sprintf("asset '%s' doesn't exist", c.Key), nil,
				"Run 'romstash ls' to see the stored assets.")
		}
		return err
	}

	if c.Out == "" {
		_, err = appCtx.Stdout.Write(blob)
		return err
	}

	f, err := appCtx.FS.OpenFile(c.Out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed opening output file: %w", err)
	}
	if _, err = f.Write(blob); err != nil {
		f.Close()
		return fmt.Errorf("failed writing output file: %w", err)
	}

	return f.Close()
}
