package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/transl8/internal/logger"
	"github.com/samcharles93/transl8/internal/model"
)

func modelConfigFromFlags() model.Config {
	return model.Config{
		SrcVocabSize:     int(srcVocab),
		TgtVocabSize:     int(tgtVocab),
		DModel:           int(dModel),
		NHead:            int(nHead),
		NumEncoderLayers: int(encoderLayers),
		NumDecoderLayers: int(decoderLayers),
		DimFeedforward:   int(dimFF),
		Dropout:          dropout,
		MaxLen:           int(maxLen),
		Seed:             seed,
	}
}

// buildModel constructs the model from the resolved flags and loads
// --weights when given.
func buildModel(ctx context.Context) (*model.TranslationModel, error) {
	log := logger.FromContext(ctx)
	m, err := model.New(modelConfigFromFlags(), model.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if weightsPath != "" {
		if err := m.LoadSafetensors(weightsPath); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// parseTokenRows parses whitespace-separated id lists. Shorter rows are
// right-padded with padID; the returned mask marks the padded positions.
func parseTokenRows(lines []string, padID int) ([][]int, [][]bool, error) {
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("no sequences given")
	}
	rows := make([][]int, len(lines))
	width := 0
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, nil, fmt.Errorf("sequence %d is empty", i)
		}
		row := make([]int, len(fields))
		for j, f := range fields {
			id, err := strconv.Atoi(f)
			if err != nil {
				return nil, nil, fmt.Errorf("sequence %d: invalid token %q", i, f)
			}
			row[j] = id
		}
		rows[i] = row
		width = max(width, len(row))
	}
	pad := make([][]bool, len(rows))
	for i, row := range rows {
		pad[i] = make([]bool, width)
		for j := len(row); j < width; j++ {
			row = append(row, padID)
			pad[i][j] = true
		}
		rows[i] = row
	}
	return rows, pad, nil
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
