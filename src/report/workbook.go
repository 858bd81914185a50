package report

import (
	"LoadFactorOTP/src/processor"
	"LoadFactorOTP/src/utils"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// 工作簿中的工作表，按此顺序排列
var workbookSheets = []string{"Routes", "Merged", "Summary", "Bins", "Correlations"}

// WriteWorkbook 将分析结果写入一个 Excel 工作簿
func WriteWorkbook(path string, a *processor.Analysis) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	frames := map[string]dataframe.DataFrame{
		"Routes":       RouteTotalsFrame(a),
		"Merged":       processor.MergedFrame(a.Merged),
		"Summary":      processor.SummaryFrame(a.Summaries),
		"Bins":         BinsFrame(a.Bins),
		"Correlations": CorrelationsFrame(a.Overall),
	}
	for _, name := range workbookSheets {
		if err := utils.WriteSheet(f, name, frames[name]); err != nil {
			return fmt.Errorf("写入工作表 %s 失败: %w", name, err)
		}
	}

	// NewFile 自带的空白工作表
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}
