// Command pngme hides, reads and removes messages stored as custom chunks
// inside PNG files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/JxBP/pngme/core/cas"
	"github.com/JxBP/pngme/core/filter"
	"github.com/JxBP/pngme/core/png"
	"github.com/JxBP/pngme/core/sqlite"
	"github.com/JxBP/pngme/internal/catalog"
	"github.com/JxBP/pngme/internal/commands"
	"github.com/JxBP/pngme/internal/logging"
)

const version = "0.2.0"

// stdout receives command output; logs go to stderr.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for pngme.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" enum:"debug,info,warn,error" default:"warn" env:"PNGME_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" enum:"text,json" default:"text" env:"PNGME_LOG_FORMAT"`

	Encode  EncodeCmd  `cmd:"" help:"Hide a message in a new chunk"`
	Decode  DecodeCmd  `cmd:"" help:"Print the message stored in a chunk"`
	Remove  RemoveCmd  `cmd:"" help:"Remove the first chunk of a type"`
	Print   PrintCmd   `cmd:"" help:"List the chunks of a PNG file"`
	Export  ExportCmd  `cmd:"" help:"Copy chunk payloads into a content-addressed store"`
	Restore RestoreCmd `cmd:"" help:"Restore a PNG from its .xz backup"`
	Index   IndexCmd   `cmd:"" help:"Record the chunks of PNG files in a catalog"`
	Query   QueryCmd   `cmd:"" help:"Find catalogued chunks by type"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// EncodeCmd appends a chunk to a PNG file.
type EncodeCmd struct {
	Path    string        `arg:"" help:"PNG file to modify" type:"existingfile"`
	Type    png.ChunkType `arg:"" help:"Four-letter chunk type, e.g. ruSt"`
	Message string        `arg:"" optional:"" help:"Message to hide (with --blob, the output path)"`
	Output  string        `arg:"" optional:"" help:"Write the result here instead of overwriting the input" type:"path"`
	Blob    string        `help:"Use a stored payload (sha256 hex or blake3:hex) instead of a message"`
	Store   string        `help:"Content-addressed store directory for --blob" type:"path"`
	Backup  bool          `help:"Keep an .xz copy of the original when overwriting"`
}

// Validate checks that exactly one payload source was given. With --blob
// there is no message, so a second positional argument is the output path.
func (c *EncodeCmd) Validate() error {
	if c.Blob == "" {
		if c.Message == "" {
			return errors.New("a message or --blob is required")
		}
		return nil
	}
	if c.Store == "" {
		return errors.New("--blob requires --store")
	}
	if c.Message != "" {
		if c.Output != "" {
			return errors.New("a message and --blob cannot be used together")
		}
		c.Output, c.Message = c.Message, ""
	}
	return nil
}

func (c *EncodeCmd) Run(ctx context.Context) error {
	payload := []byte(c.Message)
	if c.Blob != "" {
		store, err := cas.NewStore(c.Store)
		if err != nil {
			return fail(ctx, "encode", err)
		}
		if payload, err = commands.LoadBlob(store, c.Blob); err != nil {
			return fail(ctx, "encode", err)
		}
	}

	req := commands.EncodeRequest{
		Path:    c.Path,
		Output:  c.Output,
		Type:    c.Type,
		Payload: payload,
		Backup:  c.Backup,
	}
	if err := commands.EncodeFile(ctx, req); err != nil {
		return fail(ctx, "encode", err)
	}
	return nil
}

// DecodeCmd prints the text of the first chunk of a type.
type DecodeCmd struct {
	Path string        `arg:"" help:"PNG file to read" type:"existingfile"`
	Type png.ChunkType `arg:"" help:"Chunk type to decode"`
}

func (c *DecodeCmd) Run(ctx context.Context) error {
	text, err := commands.DecodeFile(ctx, c.Path, c.Type)
	if err != nil {
		return fail(ctx, "decode", err)
	}
	fmt.Fprintln(stdout, text)
	return nil
}

// RemoveCmd deletes the first chunk of a type.
type RemoveCmd struct {
	Path   string        `arg:"" help:"PNG file to modify" type:"existingfile"`
	Type   png.ChunkType `arg:"" help:"Chunk type to remove"`
	Backup bool          `help:"Keep an .xz copy of the original"`
}

func (c *RemoveCmd) Run(ctx context.Context) error {
	removed, err := commands.RemoveFile(ctx, c.Path, c.Type, c.Backup)
	if err != nil {
		return fail(ctx, "remove", err)
	}
	fmt.Fprintf(stdout, "Removed chunk: %s\n", removed)
	return nil
}

// PrintCmd lists every chunk in a PNG file.
type PrintCmd struct {
	Path       string `arg:"" help:"PNG file to list" type:"existingfile"`
	Filter     string `help:"Only list chunks matching EXPR, e.g. 'not critical and length > 0'" placeholder:"EXPR"`
	Properties bool   `help:"Show the property flags of each chunk type"`
	Digest     bool   `help:"Show the BLAKE3 digest of each payload"`
}

func (c *PrintCmd) Run(ctx context.Context) error {
	f, err := filter.Compile(c.Filter)
	if err != nil {
		return fail(ctx, "print", err)
	}
	opts := commands.RenderOptions{Filter: f, Properties: c.Properties, Digest: c.Digest}
	if err := commands.PrintFile(ctx, stdout, c.Path, opts); err != nil {
		return fail(ctx, "print", err)
	}
	return nil
}

// ExportCmd copies chunk payloads into a content-addressed store.
type ExportCmd struct {
	Path  string        `arg:"" help:"PNG file to read" type:"existingfile"`
	Type  png.ChunkType `arg:"" help:"Chunk type to export"`
	Store string        `required:"" help:"Store directory" type:"path"`
}

func (c *ExportCmd) Run(ctx context.Context) error {
	store, err := cas.NewStore(c.Store)
	if err != nil {
		return fail(ctx, "export", err)
	}
	digests, err := commands.ExportFile(ctx, c.Path, c.Type, store)
	if err != nil {
		return fail(ctx, "export", err)
	}
	for _, d := range digests {
		fmt.Fprintf(stdout, "%s %s %d\n", d.SHA256, cas.Blake3Ref(d.BLAKE3), d.Size)
	}
	return nil
}

// RestoreCmd writes a PNG back from its backup.
type RestoreCmd struct {
	Backup string `arg:"" help:"Backup file (.xz)" type:"existingfile"`
	Path   string `arg:"" help:"Where to write the restored PNG" type:"path"`
}

func (c *RestoreCmd) Run(ctx context.Context) error {
	if err := commands.RestoreFile(ctx, c.Backup, c.Path); err != nil {
		return fail(ctx, "restore", err)
	}
	return nil
}

// IndexCmd records PNG files in a catalog database.
type IndexCmd struct {
	DB     string   `arg:"" help:"Catalog database file" type:"path"`
	Paths  []string `arg:"" help:"PNG files to index" type:"existingfile"`
	Filter string   `help:"Only record chunks matching EXPR" placeholder:"EXPR"`
}

func (c *IndexCmd) Run(ctx context.Context) error {
	f, err := filter.Compile(c.Filter)
	if err != nil {
		return fail(ctx, "index", err)
	}
	cat, err := catalog.Open(ctx, c.DB)
	if err != nil {
		return fail(ctx, "index", err)
	}
	defer cat.Close()

	results, err := commands.IndexFiles(ctx, cat, c.Paths, f)
	for _, r := range results {
		if r.Skipped != "" {
			fmt.Fprintf(stdout, "%s: skipped (%s)\n", r.Path, r.Skipped)
			continue
		}
		fmt.Fprintf(stdout, "%s: %d chunks (scan %s)\n", r.Path, r.Chunks, r.ScanID)
	}
	if err != nil {
		return fail(ctx, "index", err)
	}
	return nil
}

// QueryCmd lists catalogued chunks of one type.
type QueryCmd struct {
	DB   string        `arg:"" help:"Catalog database file" type:"existingfile"`
	Type png.ChunkType `arg:"" help:"Chunk type to find"`
}

func (c *QueryCmd) Run(ctx context.Context) error {
	cat, err := catalog.OpenReadOnly(ctx, c.DB)
	if err != nil {
		return fail(ctx, "query", err)
	}
	defer cat.Close()

	entries, err := cat.FindByType(ctx, c.Type)
	if err != nil {
		return fail(ctx, "query", err)
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%s\t%d\t%s\t%d\t%d\n", e.Path, e.Seq, e.Type, e.Length, e.CRC)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "pngme version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver: %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

// Helper functions

func fail(ctx context.Context, command string, err error) error {
	logging.CommandError(ctx, command, err)
	return err
}

// setupLogging configures the global logger from the parsed flags and
// returns a context carrying a fresh run ID.
func setupLogging(level, format string) (context.Context, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logFormat, err := logging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(lvl, logFormat)
	return logging.WithRunID(context.Background(), logging.NewRunID()), nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pngme"),
		kong.Description("Hide secret messages in PNG files"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	runCtx, err := setupLogging(CLI.LogLevel, CLI.LogFormat)
	ctx.FatalIfErrorf(err)

	ctx.BindTo(runCtx, (*context.Context)(nil))
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
