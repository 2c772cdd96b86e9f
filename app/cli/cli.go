package cli

import "github.com/alecthomas/kong"

// CLI is the command line interface of romstash.
type CLI struct {
	Attach  Attach  `kong:"cmd,help='Attach a BIOS or ROM image to the emulator core.'"`
	Restore Restore `kong:"cmd,help='Attach the last stored BIOS and ROM images.'"`
	Export  Export  `kong:"cmd,help='Write a stored asset to a file.'"`
	LS      LS      `kong:"cmd,help='List stored asset keys.'"`
	Rm      Rm      `kong:"cmd,help='Delete a stored asset.'"`
	Serve   Serve   `kong:"cmd,help='Start the web server.'"`

	StoreOptions `embed:""`

	Version kong.VersionFlag `kong:"help='Print the version and exit.'"`
}

// StoreOptions configures the asset store backend.
type StoreOptions struct {
	DataDir       string `kong:"default='${dataDir}',help='Directory where assets are stored.'"`
	Backend       string `kong:"enum='badger,sqlite',default='badger',help='Storage backend to use (${enum}).'"`
	EncryptionKey string `kong:"help='Hex-encoded key used for encrypting the local data store.\n Badger accepts 16, 24 or 32 bytes, SQLite requires 32 bytes. '"`
}
