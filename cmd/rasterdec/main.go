// Command rasterdec decodes PNG and WebP images from the command line.
//
// Usage:
//
//	rasterdec dec [options] <input>   decode to a PAM file (use "-" for stdin)
//	rasterdec info <input>            display image properties and metadata
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepteams/raster"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "dec":
		err = runDec(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "rasterdec: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "rasterdec: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  rasterdec dec [options] <input>   Decode a PNG or WebP image to PAM
  rasterdec info <input>            Display image properties and metadata

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "rasterdec <command> -h" for command-specific options.
`)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.pam, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: rasterdec dec [options] <input>")
	}
	inputPath := fs.Arg(0)

	data, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("dec: reading input: %w", err)
	}

	img, err := raster.Decode(data)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outputPath := *output
	if outputPath == "-" {
		return writePAM(os.Stdout, img)
	}
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "output.pam"
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + ".pam"
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := writePAM(out, img); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("dec: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Decoded %s → %s (%dx%d)\n", inputPath, outputPath, img.Width, img.Height)
	return nil
}

// writePAM writes the RGBA buffer as a netpbm PAM file, the raw container
// that keeps this tool free of any image encoder.
func writePAM(w io.Writer, img *raster.Image) error {
	_, err := fmt.Fprintf(w, "P7\nWIDTH %d\nHEIGHT %d\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n",
		img.Width, img.Height)
	if err != nil {
		return err
	}
	_, err = w.Write(img.Pix)
	return err
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: rasterdec info <input>")
	}
	inputPath := args[0]

	data, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("info: reading input: %w", err)
	}

	cfg, err := raster.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:       %s\n", name)
	fmt.Printf("Format:     %s\n", cfg.Format)
	fmt.Printf("Dimensions: %d x %d\n", cfg.Width, cfg.Height)
	fmt.Printf("Alpha:      %v\n", cfg.HasAlpha)
	fmt.Printf("File size:  %d bytes\n", len(data))

	// Metadata requires the full decode; report it when the pixels are
	// decodable, stay silent otherwise.
	if img, err := raster.Decode(data); err == nil {
		m := &img.Metadata
		if m.ICC != nil {
			fmt.Printf("ICC:        %d bytes\n", len(m.ICC))
		}
		if m.EXIF != nil {
			fmt.Printf("EXIF:       %d bytes\n", len(m.EXIF))
		}
		if m.XMP != nil {
			fmt.Printf("XMP:        %d bytes\n", len(m.XMP))
		}
		for _, c := range m.Unknown {
			fmt.Printf("Chunk:      %q, %d bytes at offset %d\n", c.Name, len(c.Payload), c.Offset)
		}
	}

	return nil
}
