// reader.go
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// ErrNoFiles 目录中没有匹配的数据文件
var ErrNoFiles = errors.New("no matching data files")

// IsDataFile 是否为可读取的数据文件（.csv / .xlsx），忽略 Excel 临时文件
func IsDataFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ReadCSV 读取 CSV，所有列按字符串读入，数值转换交给清洗步骤
func ReadCSV(filePath string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("打开 csv 文件失败: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, fmt.Errorf("解析 csv 文件 %s 失败: %w", filePath, df.Err)
	}
	return dropUnnamed(df), nil
}

// dropUnnamed BTS 导出的 CSV 每行末尾带逗号，会多出一列无名空列
func dropUnnamed(df dataframe.DataFrame) dataframe.DataFrame {
	keep := make([]string, 0, df.Ncol())
	for _, name := range df.Names() {
		col := df.Col(name)
		if strings.HasPrefix(name, "X") && allEmpty(col) {
			continue
		}
		keep = append(keep, name)
	}
	if len(keep) == df.Ncol() {
		return df
	}
	return df.Select(keep)
}

func allEmpty(s series.Series) bool {
	for _, v := range s.Records() {
		if v != "" && v != "NaN" {
			return false
		}
	}
	return true
}

// ReadXLSX 读取工作表，sheetName 为空时取第一个工作表；第一行非空行为标题行
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("打开 xlsx 文件失败: %w", err)
	}
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件 %s 中没有工作表", filePath)
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("excel文件 %s 中没有工作表 %q", filePath, sheetName)
		}
		sheet = s
	}
	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame，所有列为字符串
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	header := -1
	for i, row := range sheet.Rows {
		if row != nil && !rowEmpty(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 为空", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[header].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	columns := make([][]string, len(headers))
	for _, row := range sheet.Rows[header+1:] {
		if row == nil || rowEmpty(row) {
			continue
		}
		for i := range headers {
			v := ""
			if i < len(row.Cells) {
				v = row.Cells[i].Value
			}
			columns[i] = append(columns[i], v)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}
	df := dataframe.New(seriesList...)
	return df, df.Err
}

func rowEmpty(row *xlsx.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.Value) != "" {
			return false
		}
	}
	return true
}

// ReadFile 按扩展名读取单个数据文件
func ReadFile(filePath, sheetName string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return ReadCSV(filePath)
	case ".xlsx":
		return ReadXLSX(filePath, sheetName)
	}
	return dataframe.DataFrame{}, fmt.Errorf("不支持的文件类型: %s", filePath)
}

// LoadDir 按文件名顺序读取目录下匹配 pattern 的全部数据文件并按行合并
func LoadDir(dir, pattern, sheetName string) (dataframe.DataFrame, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("无效的文件匹配模式 %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if IsDataFile(m) {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return dataframe.DataFrame{}, nil, fmt.Errorf("%w: %s", ErrNoFiles, filepath.Join(dir, pattern))
	}
	sort.Strings(files)

	var combined dataframe.DataFrame
	for i, path := range files {
		df, err := ReadFile(path, sheetName)
		if err != nil {
			return dataframe.DataFrame{}, nil, err
		}
		if i == 0 {
			combined = df
			continue
		}
		combined = combined.RBind(df)
		if combined.Err != nil {
			return dataframe.DataFrame{}, nil, fmt.Errorf("合并文件 %s 失败: %w", path, combined.Err)
		}
	}
	return combined, files, nil
}
