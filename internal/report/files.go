package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/vulntriage/vulntriage/config"
	"github.com/vulntriage/vulntriage/internal/pipeline"
	"github.com/vulntriage/vulntriage/pkg/assess"
)

func exists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsExist(err) {
			return true
		}

		return false
	}
	return true
}

func getOutputFile(ctx context.Context) (string, error) {
	outfile := ctx.Value("output").(string)
	if outfile == "output" {
		pwd, _ := os.Getwd()
		folder := filepath.Join(pwd, "output")
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}
		nowStamp := time.Now().Format("2006-01-02")
		file := filepath.Join(folder, fmt.Sprintf("%s.json", nowStamp))

		return file, nil

	} else {
		folder := filepath.Dir(outfile)
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}

		return outfile, nil

	}

}

type failedItem struct {
	CVEID string `json:"cve_id"`
	Error string `json:"error"`
}

type triageReport struct {
	GeneratedAt string               `json:"generated_at"`
	Assessments []*assess.Assessment `json:"assessments"`
	Failed      []failedItem         `json:"failed,omitempty"`
}

// TriageToJson saves the assessments for the report renderer
func TriageToJson(ctx context.Context, results []pipeline.Result) error {
	filename, err := getOutputFile(ctx)
	if err != nil {
		return err
	}

	rep := triageReport{
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
		Assessments: []*assess.Assessment{},
	}

	for _, r := range results {
		if r.Err != nil {
			rep.Failed = append(rep.Failed, failedItem{
				CVEID: r.Record.CVEID,
				Error: r.Err.Error(),
			})
			continue
		}
		rep.Assessments = append(rep.Assessments, r.Assessment)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(filename, data, 0644)
	if err != nil {
		return err
	}

	fmt.Printf("\n")
	log.Printf("Output file is saved in: %s", config.Yellow(filename))

	return nil
}
