package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-timetable/backend/internal/model"
	"campus-timetable/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoLectures   = errors.New("课表中没有可见课次")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：列为周一 ~ 周日，行为去重后的时间段，单元格为课程与教室
//   - 仅导出关联 is_active=true 的课次，已取消课次标注"已取消"
type ExportService interface {
	// ExportTimetable 导出课表为 Excel；timetableID 为空时导出当前激活课表
	ExportTimetable(ctx context.Context, timetableID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// 周一起排列，与纸质课表习惯一致
var exportDayOrder = []model.Weekday{
	model.Monday, model.Tuesday, model.Wednesday, model.Thursday,
	model.Friday, model.Saturday, model.Sunday,
}

var exportDayNames = map[model.Weekday]string{
	model.Monday: "周一", model.Tuesday: "周二", model.Wednesday: "周三", model.Thursday: "周四",
	model.Friday: "周五", model.Saturday: "周六", model.Sunday: "周日",
}

// ═══════════════════════════════════════════════════════════
// ExportTimetable，导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：课表名称
//   - 表头：时间 | 周一 … 周日
//   - 单元格：课程代码 课程名 @ 教室，同一格多门课换行分隔
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTimetable(ctx context.Context, timetableID string) (*bytes.Buffer, string, error) {
	// 1. 定位课表
	var (
		timetable *model.Timetable
		err       error
	)
	if timetableID == "" {
		timetable, err = s.repo.Timetable.GetActive(ctx)
	} else {
		timetable, err = s.repo.Timetable.GetByID(ctx, timetableID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if timetableID == "" {
				return nil, "", ErrNoActiveTimetable
			}
			return nil, "", ErrTimetableNotFound
		}
		return nil, "", storeError(s.logger, "查询课表失败", err)
	}

	// 2. 查询课表中可见的课次
	lectures, err := s.repo.Lecture.List(ctx, repository.LectureFilter{TimetableID: timetable.TimetableID})
	if err != nil {
		return nil, "", storeError(s.logger, "查询课表课次失败", err, zap.String("timetable_id", timetable.TimetableID))
	}
	if len(lectures) == 0 {
		return nil, "", ErrExportNoLectures
	}

	// 3. 构建索引: "day:start-end" → 单元格文本，并收集去重后的时间段
	cells := make(map[string][]string)
	slotSeen := make(map[string]bool)
	var slots []string
	for i := range lectures {
		l := &lectures[i]
		slot := clockText(l.StartTime) + "-" + clockText(l.EndTime)
		if !slotSeen[slot] {
			slotSeen[slot] = true
			slots = append(slots, slot)
		}
		key := fmt.Sprintf("%d:%s", l.DayOfWeek, slot)
		cells[key] = append(cells[key], lectureCellText(l))
	}
	// "HH:MM-HH:MM" 定长，字典序即时间序
	sort.Strings(slots)

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", colName(len(exportDayOrder)), 26)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", timetable.Name)
	f.MergeCell(sheetName, "A1", cell(colName(len(exportDayOrder)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "时间")
	for i, day := range exportDayOrder {
		f.SetCellValue(sheetName, cell(colName(i+1), row), exportDayNames[day])
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(exportDayOrder)), row), headerStyle)

	// 数据行
	row = 3
	for _, slot := range slots {
		f.SetCellValue(sheetName, cell("A", row), slot)
		for i, day := range exportDayOrder {
			text := "-"
			if entries, ok := cells[fmt.Sprintf("%d:%s", day, slot)]; ok {
				text = strings.Join(entries, "\n")
			}
			f.SetCellValue(sheetName, cell(colName(i+1), row), text)
		}
		f.SetCellStyle(sheetName, cell("B", row), cell(colName(len(exportDayOrder)), row), cellStyle)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s.xlsx", timetable.Name)
	return buf, filename, nil
}

// ── 辅助函数 ──

func lectureCellText(l *model.Lecture) string {
	text := l.CourseID
	if l.Course != nil {
		text = l.Course.Code + " " + l.Course.Name
	}
	if l.Classroom != nil {
		text += " @ " + l.Classroom.Name
	}
	if l.IsCanceled {
		text += "（已取消）"
	}
	return text
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
