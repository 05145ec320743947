package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/samcharles93/transl8/internal/safetensors"
	"github.com/urfave/cli/v3"
)

type tensorSummary struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
	Bytes int64  `json:"bytes"`
}

type fileSummary struct {
	Path     string            `json:"path"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Tensors  []tensorSummary   `json:"tensors"`
	Total    int               `json:"total"`
	Bytes    int64             `json:"bytes"`
}

func summarize(f *safetensors.File, filter string, limit int) fileSummary {
	s := fileSummary{Path: f.Path, Metadata: f.Metadata}
	for _, name := range f.Names() {
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		info, _ := f.Tensor(name)
		s.Total++
		s.Bytes += info.End - info.Start
		if limit > 0 && len(s.Tensors) >= limit {
			continue
		}
		s.Tensors = append(s.Tensors, tensorSummary{
			Name:  name,
			DType: info.DType,
			Shape: info.Shape,
			Bytes: info.End - info.Start,
		})
	}
	return s
}

func printSummary(w io.Writer, s fileSummary) {
	_, _ = fmt.Fprintf(w, "file: %s\n", s.Path)
	for k, v := range s.Metadata {
		_, _ = fmt.Fprintf(w, "meta: %s=%s\n", k, v)
	}
	for _, t := range s.Tensors {
		_, _ = fmt.Fprintf(w, "%-72s %-5s %-14v %s\n", t.Name, t.DType, t.Shape, humanize.Bytes(uint64(t.Bytes)))
	}
	if len(s.Tensors) < s.Total {
		_, _ = fmt.Fprintf(w, "... %d more\n", s.Total-len(s.Tensors))
	}
	_, _ = fmt.Fprintf(w, "tensors: %d (%s)\n", s.Total, humanize.Bytes(uint64(s.Bytes)))
}

func inspectCmd() *cli.Command {
	var (
		path   string
		filter string
		limit  int64
		asJSON bool
	)
	return &cli.Command{
		Name:  "inspect",
		Usage: "List the tensors of a safetensors checkpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "weights",
				Aliases:     []string{"w"},
				Usage:       "path to .safetensors file",
				Required:    true,
				Destination: &path,
			},
			&cli.StringFlag{Name: "filter", Usage: "only show tensors whose name contains this", Destination: &filter},
			&cli.Int64Flag{Name: "limit", Usage: "max tensors to print (0: all)", Destination: &limit},
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := safetensors.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			s := summarize(f, filter, int(limit))
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			printSummary(os.Stdout, s)
			return nil
		},
	}
}
