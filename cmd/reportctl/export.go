package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yockii/ai_report/internal/export"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/config"
	"github.com/yockii/ai_report/pkg/util"
)

// exportOptions 导出相关的命令行参数
type exportOptions struct {
	periodID string
	language string
	formats  []export.Format
	outDir   string
}

func readExportOptions(cmd *cobra.Command) (*exportOptions, error) {
	flags := cmd.Flags()
	periodID, _ := flags.GetString("period")
	language, _ := flags.GetString("lang")
	formatList, _ := flags.GetString("format")
	outDir, _ := flags.GetString("out")

	if !model.ValidPeriodID(periodID) {
		return nil, fmt.Errorf("invalid or missing --period %q", periodID)
	}
	formats, err := export.ParseFormats(formatList)
	if err != nil {
		return nil, err
	}
	return &exportOptions{
		periodID: periodID,
		language: model.NormalizeLanguage(language),
		formats:  formats,
		outDir:   outDir,
	}, nil
}

// writeArtifacts 按所选格式导出并写入输出目录，返回写入的文件路径
func writeArtifacts(opts *exportOptions, markdown string, log io.Writer) ([]string, error) {
	exporter := export.NewController(config.GetString("report.file_prefix"))
	src := export.Source{PeriodID: opts.periodID, Language: opts.language, Markdown: markdown}

	paths := make([]string, 0, len(opts.formats))
	for _, format := range opts.formats {
		artifact, err := exporter.Export(src, format)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(opts.outDir, artifact.Filename)
		if err = util.SaveFile(path, artifact.Data); err != nil {
			return paths, fmt.Errorf("save %s: %w", path, err)
		}
		fmt.Fprintf(log, "saved %s (%s, %d bytes)\n", path, artifact.ContentType, len(artifact.Data))
		paths = append(paths, path)
	}
	return paths, nil
}
