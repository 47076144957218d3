// Command compile reads the JSON wire form of a condition tree and prints
// the compiled query descriptor. Useful for inspecting what a given tree
// translates to without a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/thisisjab/mongozilla/compiler"
)

func main() {
	collection := flag.String("collection", "documents", "target collection name")
	selectFields := flag.String("select", "", "comma-separated fields to project")
	limit := flag.Int64("limit", 0, "maximum number of documents")
	skip := flag.Int64("skip", 0, "number of documents to skip")
	flag.Parse()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read stdin: %v\n", err)
		os.Exit(1)
	}

	tree, err := compiler.DecodeTree(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot decode condition tree: %v\n", err)
		os.Exit(1)
	}

	var fields []string
	if *selectFields != "" {
		fields = strings.Split(*selectFields, ",")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	desc := compiler.NewTranslator(logger).Compile(*collection, tree, fields, *limit, *skip)

	if err := desc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid query: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot encode descriptor: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}
