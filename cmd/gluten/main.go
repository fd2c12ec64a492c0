package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ditgittube/gluten/pkg/compression"
	"github.com/ditgittube/gluten/pkg/convert"
	"github.com/ditgittube/gluten/pkg/engine"
	"github.com/ditgittube/gluten/pkg/logger"
	"github.com/ditgittube/gluten/pkg/shuffle"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var logLevel string

	root := &cobra.Command{
		Use:   "gluten",
		Short: "Gluten - columnar data bridge for native query acceleration",
		Long: `Gluten bridges Arrow columnar data into the native engine's internal
column representation and re-batches shuffle block streams into size-bounded
chunks that never straddle two partitions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: "console"})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Gluten v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Convert command: Arrow IPC file in, native block stream (or summary) out.
	var convertInput, convertOutput, formatName string
	var importNested, allowMissing, compress bool

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an Arrow IPC file into the internal block format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(convertInput, convertOutput, formatName, importNested, allowMissing, compress)
		},
	}
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Path to Arrow IPC file (required)")
	_ = convertCmd.MarkFlagRequired("input")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Path to write the native block stream (omit to print a summary only)")
	convertCmd.Flags().StringVar(&formatName, "format", "Arrow", "Source format display name used in diagnostics")
	convertCmd.Flags().BoolVar(&importNested, "import-nested", false, "Resolve dotted column names against flattened nested tables")
	convertCmd.Flags().BoolVar(&allowMissing, "allow-missing", false, "Fill absent columns with defaults instead of failing")
	convertCmd.Flags().BoolVar(&compress, "compress", false, "Compress the output block stream with zstd")
	root.AddCommand(convertCmd)

	// Shuffle command: native block stream in, merged chunks out.
	var shuffleInput string
	var compressed bool
	var maxRows, maxBytes int64

	shuffleCmd := &cobra.Command{
		Use:   "shuffle",
		Short: "Re-batch a native block stream into size-bounded chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShuffle(shuffleInput, compressed, maxRows, maxBytes)
		},
	}
	shuffleCmd.Flags().StringVarP(&shuffleInput, "input", "i", "", "Path to the native block stream (required)")
	_ = shuffleCmd.MarkFlagRequired("input")
	shuffleCmd.Flags().BoolVar(&compressed, "compressed", false, "Input stream is zstd-compressed")
	shuffleCmd.Flags().Int64Var(&maxRows, "max-rows", 8192, "Maximum rows per output chunk (negative disables)")
	shuffleCmd.Flags().Int64Var(&maxBytes, "max-bytes", -1, "Maximum bytes per output chunk (negative disables)")
	root.AddCommand(shuffleCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConvert(input, output, formatName string, importNested, allowMissing, compress bool) error {
	log := logger.Get()

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	rdr, err := ipc.NewFileReader(f, ipc.WithAllocator(engine.Allocator()))
	if err != nil {
		return fmt.Errorf("opening Arrow IPC file: %w", err)
	}
	defer rdr.Close()

	records := make([]arrow.Record, 0, rdr.NumRecords())
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading Arrow record: %w", err)
		}
		rec.Retain()
		records = append(records, rec)
	}
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	table := array.NewTableFromRecords(rdr.Schema(), records)
	defer table.Release()

	header, err := convert.SchemaToHeader(rdr.Schema(), formatName)
	if err != nil {
		return err
	}
	session := convert.NewSession(header, formatName, importNested, allowMissing)
	blk, err := session.ConvertTable(table)
	if err != nil {
		return err
	}
	log.Info("converted table",
		zap.Int("columns", len(blk.Columns)),
		zap.Int("rows", blk.Rows()),
		zap.Int64("bytes", blk.ByteSize()))

	if output == "" {
		for _, c := range blk.Columns {
			fmt.Printf("%s\t%s\t%d rows\n", c.Name, c.Type, c.Data.Rows())
		}
		return nil
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	var dst io.Writer = out
	if compress {
		wc, err := compression.NewStreamWriter(compression.Zstd, out)
		if err != nil {
			return err
		}
		defer wc.Close()
		dst = wc
	}
	return shuffle.NewWriter(dst).WriteBlock(blk)
}

func runShuffle(input string, compressed bool, maxRows, maxBytes int64) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := shuffle.NewReader(f, compressed, maxRows, maxBytes)
	if err != nil {
		return err
	}
	defer reader.Close()

	var chunks int
	for {
		chunk, err := reader.Next()
		if err != nil {
			return err
		}
		if chunk.Empty() {
			break
		}
		chunks++
		fmt.Printf("chunk %d: %d rows, %d bytes, bucket=%d overflow=%v\n",
			chunks, chunk.Rows(), chunk.ByteSize(), chunk.Info.BucketNum, chunk.Info.IsOverflow)
	}
	fmt.Printf("%d chunks total\n", chunks)
	return nil
}
