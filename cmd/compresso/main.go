// Command-line interface to the compresso label codec.  Compresses packed
// label arrays from stdin and decompresses compresso streams back to them.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/compresso"
)

var (
	compression = flag.String("compress", "", "")

	width        = flag.Int("width", 8, "")
	connectivity = flag.Int("connectivity", 4, "")
	steps        = flag.String("steps", "4,4,1", "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Display usage if true.
	showHelp = flag.Bool("help", false, "")
)

const helpMessage = `
compresso compresses and decompresses 3-d label array data.  If
-compress=NX,NY,NZ is used, the program accepts a packed array of
little-endian labels in Z, Y, and then X order, where the dimensions of the
input array are NX x NY x NZ, and writes a compresso stream to stdout.  If no
-compress flag is given, the program expects stdin to be a compresso stream
and writes the packed label array to stdout.

Usage: compresso [options]

	-compress       =string   Dimensions ("NX,NY,NZ") of the packed label array.
	-width          =number   Bytes per label: 1, 2, 4, or 8 (default 8).
	-connectivity   =number   Connected-component connectivity: 4 or 6 (default 4).
	-steps          =string   Grid block shape ("X,Y,Z", default "4,4,1").
	-verbose        (flag)    Run in verbose mode.
	-h, -help       (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Printf(helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() != 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *runVerbose {
		compresso.SetLogMode(compresso.DebugMode)
	}

	if len(*compression) != 0 {
		compress()
	} else {
		uncompress()
	}
}

func compress() {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		os.Exit(1)
	}
	var nx, ny, nz int
	if n, err := fmt.Sscanf(*compression, "%d,%d,%d", &nx, &ny, &nz); n != 3 || err != nil {
		fmt.Fprintf(os.Stderr, "Could not interpret volume size, should be -compress=nx,ny,nz: %v\n", err)
		os.Exit(1)
	}
	var xstep, ystep, zstep int
	if n, err := fmt.Sscanf(*steps, "%d,%d,%d", &xstep, &ystep, &zstep); n != 3 || err != nil {
		fmt.Fprintf(os.Stderr, "Could not interpret block steps, should be -steps=x,y,z: %v\n", err)
		os.Exit(1)
	}
	if len(b) != nx*ny*nz*(*width) {
		fmt.Fprintf(os.Stderr, "Bad input.  Expected %d bytes, got %d bytes\n", nx*ny*nz*(*width), len(b))
		os.Exit(1)
	}

	opt := &compresso.CompressOptions{
		XStep:        uint8(xstep),
		YStep:        uint8(ystep),
		ZStep:        uint8(zstep),
		Connectivity: uint8(*connectivity),
	}
	stream, err := compresso.Compress(b, nx, ny, nz, *width, opt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to compress label array: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stdout.Write(stream); err != nil {
		fmt.Fprintf(os.Stderr, "Error trying to write stream to stdout: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "compressed %s -> %s (%.2f%%)\n",
		humanize.Bytes(uint64(len(b))), humanize.Bytes(uint64(len(stream))),
		100.0*float64(len(stream))/float64(len(b)))
}

func uncompress() {
	stream, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		os.Exit(1)
	}
	header, err := compresso.ParseHeader(stream)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error trying to read stream header: %v\n", err)
		os.Exit(1)
	}
	output := make([]byte, header.Voxels()*int(header.DataWidth))
	if err := compresso.Decompress(stream, output); err != nil {
		fmt.Fprintf(os.Stderr, "Error trying to decompress stream: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stdout.Write(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error trying to write labels to stdout: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "decompressed %s -> %s (%d x %d x %d, %d-byte labels)\n",
		humanize.Bytes(uint64(len(stream))), humanize.Bytes(uint64(len(output))),
		header.Sx, header.Sy, header.Sz, header.DataWidth)
}
