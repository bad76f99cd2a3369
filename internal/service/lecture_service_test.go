package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-timetable/backend/internal/dto"
	"campus-timetable/backend/internal/model"
	pkgerrors "campus-timetable/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestLectureService() (LectureService, *mockStore) {
	store := newMockStore()
	svc := NewLectureService(newMockRepository(store), time.UTC, zap.NewNop())
	return svc, store
}

func operator() *string {
	id := "admin-001"
	return &id
}

func lectureReq(classroomID, courseID, day, start, end string) *dto.CreateLectureRequest {
	return &dto.CreateLectureRequest{
		ClassroomID: classroomID,
		CourseID:    courseID,
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
	}
}

// ── Create 测试 ──

func TestLectureService_Create_LinksActiveTimetable(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	active := store.addTimetable("2026 秋季", true)
	store.addTimetable("草稿", false)

	result, err := svc.Create(context.Background(), lectureReq(lab1, course, "MON", "09:00", "10:00"), operator())
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.LinkedTimetableID == nil || *result.LinkedTimetableID != active {
		t.Fatalf("期望关联激活课表 %s，实际 %v", active, result.LinkedTimetableID)
	}
	if !store.visibleIn(active, result.ID) {
		t.Error("激活课表中应存在该课次的可见关联")
	}
	if len(store.links) != 1 {
		t.Errorf("只应创建 1 条关联，实际 %d", len(store.links))
	}
	if result.DayOfWeek != "MON" || result.StartTime != "09:00" || result.LecturerID != "L" {
		t.Errorf("响应字段错误: %+v", result.LectureResponse)
	}
}

func TestLectureService_Create_KeepsSeconds(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)

	result, err := svc.Create(context.Background(), lectureReq(lab1, course, "MON", "09:00:10", "10:00:30"), operator())
	if err != nil {
		t.Fatalf("秒级时间段应创建成功: %v", err)
	}
	if stored := store.lectures[result.ID]; stored.StartTime != "09:00:10" || stored.EndTime != "10:00:30" {
		t.Errorf("存储时不应丢弃秒: %s-%s", stored.StartTime, stored.EndTime)
	}

	// 与上一节只重叠 15 秒也算冲突
	_, err = svc.Create(context.Background(), lectureReq(lab1, course, "MON", "10:00:15", "11:00"), operator())
	if !errors.Is(err, ErrClassroomConflict) {
		t.Errorf("期望 ErrClassroomConflict，实际: %v", err)
	}
}

func TestLectureService_Create_NoActiveTimetable(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	store.addTimetable("草稿", false)

	result, err := svc.Create(context.Background(), lectureReq(lab1, course, "MON", "09:00", "10:00"), operator())
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.LinkedTimetableID != nil {
		t.Errorf("无激活课表时不应关联，实际 %s", *result.LinkedTimetableID)
	}
	if len(store.links) != 0 {
		t.Errorf("不应创建任何关联，实际 %d", len(store.links))
	}
	if len(store.lectures) != 1 {
		t.Errorf("课次应已落库")
	}
}

func TestLectureService_Create_ClassroomConflict(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	c1 := store.addCourse("CS101", "A", lab1)
	c2 := store.addCourse("CS102", "B", lab1)
	store.addLecture(lab1, c1, model.Monday, "09:00", "10:00")

	_, err := svc.Create(context.Background(), lectureReq(lab1, c2, "MON", "09:30", "10:30"), operator())
	if !errors.Is(err, ErrClassroomConflict) {
		t.Fatalf("期望 ErrClassroomConflict，实际: %v", err)
	}
	if len(store.lectures) != 1 {
		t.Errorf("冲突时不应落库，实际 %d 条课次", len(store.lectures))
	}
}

func TestLectureService_Create_TouchingEndpoints(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	c1 := store.addCourse("CS101", "A", lab1)
	c2 := store.addCourse("CS102", "B", lab1)
	store.addLecture(lab1, c1, model.Monday, "09:00", "10:00")

	if _, err := svc.Create(context.Background(), lectureReq(lab1, c2, "MON", "10:00", "11:00"), operator()); err != nil {
		t.Errorf("首尾相接应允许创建: %v", err)
	}
}

func TestLectureService_Create_LecturerConflict(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	lab2 := store.addClassroom("Lab2")
	c1 := store.addCourse("CS101", "L", lab1)
	c2 := store.addCourse("CS201", "L", lab2)
	store.addLecture(lab1, c1, model.Tuesday, "14:00", "16:00")

	_, err := svc.Create(context.Background(), lectureReq(lab2, c2, "TUE", "15:00", "17:00"), operator())
	if !errors.Is(err, ErrLecturerConflict) {
		t.Fatalf("期望 ErrLecturerConflict，实际: %v", err)
	}
	if errors.Is(err, ErrClassroomConflict) {
		t.Error("不同教室不应报告教室冲突")
	}
}

func TestLectureService_Create_TimeOrder(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)

	_, err := svc.Create(context.Background(), lectureReq(lab1, course, "MON", "10:00", "10:00"), operator())
	if !errors.Is(err, ErrLectureTimeOrder) {
		t.Errorf("期望 ErrLectureTimeOrder，实际: %v", err)
	}
	if len(store.lectures) != 0 {
		t.Error("时间顺序错误时不应落库")
	}
}

func TestLectureService_Create_RefsNotFound(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)

	_, err := svc.Create(context.Background(), lectureReq(lab1, "missing", "MON", "09:00", "10:00"), operator())
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
	_, err = svc.Create(context.Background(), lectureReq("missing", course, "MON", "09:00", "10:00"), operator())
	if !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("期望 ErrClassroomNotFound，实际: %v", err)
	}
}

func TestLectureService_Create_LinkFailure(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	store.addTimetable("2026 秋季", true)
	store.linkCreateErr = errors.New("connection reset")

	// 回滚由真实事务保证（见 repository 集成测试），此处只校验错误语义
	_, err := svc.Create(context.Background(), lectureReq(lab1, course, "MON", "09:00", "10:00"), operator())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("期望 ErrStoreUnavailable，实际: %v", err)
	}
}

// ── Check 测试 ──

func TestLectureService_Check(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	c1 := store.addCourse("CS101", "A", lab1)
	c2 := store.addCourse("CS102", "B", lab1)
	existing := store.addLecture(lab1, c1, model.Monday, "09:00", "10:00")

	req := &dto.CheckLectureRequest{CreateLectureRequest: *lectureReq(lab1, c2, "MON", "09:30", "10:30")}
	result, err := svc.Check(context.Background(), req)
	if err != nil {
		t.Fatalf("Check 不应返回错误: %v", err)
	}
	if result.Available {
		t.Error("存在冲突时 Available 应为 false")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].LectureID != existing || result.Conflicts[0].Kind != "classroom" {
		t.Errorf("冲突明细错误: %+v", result.Conflicts)
	}

	req.StartTime, req.EndTime = "10:00", "11:00"
	result, err = svc.Check(context.Background(), req)
	if err != nil || !result.Available {
		t.Errorf("无冲突时应可用: %v %+v", err, result)
	}
	if len(store.lectures) != 1 {
		t.Error("预检不应落库")
	}
}

// ── Update 测试 ──

func TestLectureService_Update_ExcludesSelf(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")

	start, end := "09:30", "10:30"
	result, err := svc.Update(context.Background(), id, &dto.UpdateLectureRequest{StartTime: &start, EndTime: &end, Version: intPtr(1)}, operator())
	if err != nil {
		t.Fatalf("与自身重叠的修改应成功: %v", err)
	}
	if result.StartTime != "09:30" || result.Version != 2 {
		t.Errorf("期望 09:30 / version=2，实际 %s / %d", result.StartTime, result.Version)
	}
}

func TestLectureService_Update_Conflict(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	c1 := store.addCourse("CS101", "A", lab1)
	c2 := store.addCourse("CS102", "B", lab1)
	store.addLecture(lab1, c1, model.Wednesday, "13:00", "15:00")
	id := store.addLecture(lab1, c2, model.Monday, "09:00", "10:00")

	day := "WED"
	_, err := svc.Update(context.Background(), id, &dto.UpdateLectureRequest{DayOfWeek: &day, Version: intPtr(1)}, operator())
	if err != nil {
		t.Fatalf("移到周三 09:00 不冲突: %v", err)
	}

	start, end := "14:00", "16:00"
	_, err = svc.Update(context.Background(), id, &dto.UpdateLectureRequest{StartTime: &start, EndTime: &end, Version: intPtr(2)}, operator())
	if !errors.Is(err, ErrClassroomConflict) {
		t.Fatalf("期望 ErrClassroomConflict，实际: %v", err)
	}
	if got := store.lectures[id]; got.StartTime != "09:00" || got.DayOfWeek != model.Wednesday {
		t.Errorf("冲突时不应修改课次: %+v", got)
	}
}

func TestLectureService_Update_VersionConflict(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	store.lectures[id].Version = 3

	note := "换教室"
	_, err := svc.Update(context.Background(), id, &dto.UpdateLectureRequest{Note: &note, Version: intPtr(2)}, operator())
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestLectureService_Update_WithoutVersion(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	store.lectures[id].Version = 5

	note := "带上教材"
	result, err := svc.Update(context.Background(), id, &dto.UpdateLectureRequest{Note: &note}, operator())
	if err != nil {
		t.Fatalf("未携带版本号的修改应成功: %v", err)
	}
	if result.Version != 6 {
		t.Errorf("期望 version=6，实际 %d", result.Version)
	}
}

func TestLectureService_Update_CorruptStoredSlot(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	store.lectures[id].StartTime = "nine"

	day, start, end := "MON", "09:00", "10:00"
	_, err := svc.Update(context.Background(), id, &dto.UpdateLectureRequest{DayOfWeek: &day, StartTime: &start, EndTime: &end}, operator())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("存储中的时间段无法解析时应返回 ErrStoreUnavailable，实际: %v", err)
	}
}

func TestLectureService_Update_NotFound(t *testing.T) {
	svc, _ := setupTestLectureService()

	_, err := svc.Update(context.Background(), "missing", &dto.UpdateLectureRequest{Version: intPtr(1)}, operator())
	if !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("期望 ErrLectureNotFound，实际: %v", err)
	}
}

func TestLectureService_Update_TimeOrder(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")

	end := "08:00"
	_, err := svc.Update(context.Background(), id, &dto.UpdateLectureRequest{EndTime: &end, Version: intPtr(1)}, operator())
	if !errors.Is(err, ErrLectureTimeOrder) {
		t.Errorf("期望 ErrLectureTimeOrder，实际: %v", err)
	}
}

// ── Cancel / SetNote 测试 ──

func TestLectureService_Cancel(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")

	result, err := svc.Cancel(context.Background(), id, nil, operator())
	if err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if !result.IsCanceled || !store.lectures[id].IsCanceled {
		t.Error("课次应标记为已取消")
	}

	// 重复取消不写库
	again, err := svc.Cancel(context.Background(), id, nil, operator())
	if err != nil {
		t.Fatalf("重复取消应成功: %v", err)
	}
	if again.Version != result.Version {
		t.Errorf("重复取消不应增加版本号: %d → %d", result.Version, again.Version)
	}
}

func TestLectureService_Cancel_WithNote(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")

	note := " 讲师出差，顺延一周 "
	result, err := svc.Cancel(context.Background(), id, &note, operator())
	if err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if !result.IsCanceled || result.Note == nil || *result.Note != "讲师出差，顺延一周" {
		t.Errorf("取消时应写入去除空白的备注: %+v", result)
	}

	// 已取消的课次携带新备注仍需写库
	update := "改为下周三补课"
	again, err := svc.Cancel(context.Background(), id, &update, operator())
	if err != nil {
		t.Fatalf("重复取消应成功: %v", err)
	}
	if again.Note == nil || *again.Note != update || again.Version != result.Version+1 {
		t.Errorf("新备注应写库并增加版本号: %+v", again)
	}
	if got := store.lectures[id].Note; got == nil || *got != update {
		t.Errorf("存储中的备注未更新: %v", got)
	}

	// 空白备注视为未传
	blank := "   "
	kept, err := svc.Cancel(context.Background(), id, &blank, operator())
	if err != nil {
		t.Fatalf("重复取消应成功: %v", err)
	}
	if kept.Version != again.Version || *kept.Note != update {
		t.Errorf("空白备注不应改动课次: %+v", kept)
	}
}

func TestLectureService_SetNote(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")

	if _, err := svc.SetNote(context.Background(), id, "   ", operator()); !errors.Is(err, ErrLectureNoteEmpty) {
		t.Errorf("期望 ErrLectureNoteEmpty，实际: %v", err)
	}

	result, err := svc.SetNote(context.Background(), id, " 本周改为线上 ", operator())
	if err != nil {
		t.Fatalf("SetNote 应成功: %v", err)
	}
	if result.Note == nil || *result.Note != "本周改为线上" {
		t.Errorf("备注应去除首尾空白，实际 %v", result.Note)
	}
}

// ── Delete 测试 ──

func TestLectureService_Delete_CascadesLinks(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	tt := store.addTimetable("2026 秋季", true)
	id := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	store.addLink(tt, id)

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(store.links) != 0 {
		t.Error("课次删除后关联应一并删除")
	}
	if err := svc.Delete(context.Background(), id); !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("期望 ErrLectureNotFound，实际: %v", err)
	}
}

// ── List 测试 ──

func TestLectureService_List_OrderedAndFiltered(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	lab2 := store.addClassroom("Lab2")
	c1 := store.addCourse("CS101", "A", lab1)
	c2 := store.addCourse("CS102", "B", lab2)
	store.addLecture(lab1, c1, model.Wednesday, "09:00", "10:00")
	store.addLecture(lab1, c1, model.Monday, "13:00", "14:00")
	store.addLecture(lab2, c2, model.Monday, "08:00", "09:00")

	all, err := svc.List(context.Background(), &dto.LectureListQuery{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("期望 3 条，实际 %d", len(all))
	}
	if all[0].DayOfWeek != "MON" || all[0].StartTime != "08:00" || all[2].DayOfWeek != "WED" {
		t.Errorf("应按星期、开始时间排序: %+v", all)
	}

	monLab1, _ := svc.List(context.Background(), &dto.LectureListQuery{Day: "MON", ClassroomID: lab1})
	if len(monLab1) != 1 || monLab1[0].StartTime != "13:00" {
		t.Errorf("按星期与教室过滤错误: %+v", monLab1)
	}

	byLecturer, _ := svc.List(context.Background(), &dto.LectureListQuery{LecturerID: "B"})
	if len(byLecturer) != 1 || byLecturer[0].ClassroomID != lab2 {
		t.Errorf("按讲师过滤错误: %+v", byLecturer)
	}
}

func TestLectureService_List_ActiveOnly(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	active := store.addTimetable("T1", true)
	draft := store.addTimetable("T2", false)
	inActive := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	inDraft := store.addLecture(lab1, course, model.Monday, "10:00", "11:00")
	hidden := store.addLecture(lab1, course, model.Monday, "11:00", "12:00")
	store.addLink(active, inActive)
	store.addLink(draft, inDraft)
	store.addLink(active, hidden)
	store.links[linkKey(active, hidden)].IsActive = false

	result, err := svc.List(context.Background(), &dto.LectureListQuery{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 || result[0].ID != inActive {
		t.Errorf("仅应返回激活课表中可见的课次: %+v", result)
	}

	byTimetable, _ := svc.List(context.Background(), &dto.LectureListQuery{TimetableID: draft})
	if len(byTimetable) != 1 || byTimetable[0].ID != inDraft {
		t.Errorf("按课表过滤错误: %+v", byTimetable)
	}
}

func TestLectureService_List_TodayAndCanceled(t *testing.T) {
	svc, store := setupTestLectureService()
	// 2026-10-20 是周二
	svc.(*lectureService).now = func() time.Time { return time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC) }

	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	tue := store.addLecture(lab1, course, model.Tuesday, "09:00", "10:00")
	canceled := store.addLecture(lab1, course, model.Tuesday, "13:00", "14:00")
	store.lectures[canceled].IsCanceled = true

	today, _ := svc.List(context.Background(), &dto.LectureListQuery{Today: true})
	if len(today) != 2 {
		t.Errorf("今天应有 2 条（含已取消），实际 %d", len(today))
	}

	exclude := false
	notCanceled, _ := svc.List(context.Background(), &dto.LectureListQuery{Today: true, IncludeCanceled: &exclude})
	if len(notCanceled) != 1 || notCanceled[0].ID != tue {
		t.Errorf("排除已取消后应只剩周二上午: %+v", notCanceled)
	}
}

// ── 讲师视图测试 ──

func TestLectureService_ListByLecturer(t *testing.T) {
	svc, store := setupTestLectureService()
	svc.(*lectureService).now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) } // 周一

	lab1 := store.addClassroom("Lab1")
	mine := store.addCourse("CS101", "L", lab1)
	other := store.addCourse("CS102", "X", lab1)
	active := store.addTimetable("T1", true)
	mon := store.addLecture(lab1, mine, model.Monday, "09:00", "10:00")
	fri := store.addLecture(lab1, mine, model.Friday, "09:00", "10:00")
	unlinked := store.addLecture(lab1, mine, model.Monday, "14:00", "15:00")
	otherLec := store.addLecture(lab1, other, model.Monday, "11:00", "12:00")
	store.addLink(active, mon)
	store.addLink(active, fri)
	store.addLink(active, otherLec)
	_ = unlinked

	all, err := svc.ListByLecturer(context.Background(), "L", false)
	if err != nil {
		t.Fatalf("ListByLecturer 应成功: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("期望 2 条激活课表中的课次，实际 %d", len(all))
	}

	today, _ := svc.ListByLecturer(context.Background(), "L", true)
	if len(today) != 1 || today[0].ID != mon {
		t.Errorf("今天应只有周一的课次: %+v", today)
	}

	if _, err := svc.ListByLecturer(context.Background(), " ", false); !errors.Is(err, ErrLecturerIDMissing) {
		t.Errorf("期望 ErrLecturerIDMissing，实际: %v", err)
	}
}

func TestLectureService_LecturerStats(t *testing.T) {
	svc, store := setupTestLectureService()
	lab1 := store.addClassroom("Lab1")
	course := store.addCourse("CS101", "L", lab1)
	active := store.addTimetable("T1", true)
	a := store.addLecture(lab1, course, model.Monday, "09:00", "10:00")
	b := store.addLecture(lab1, course, model.Tuesday, "09:00", "10:00")
	store.addLecture(lab1, course, model.Wednesday, "09:00", "10:00")
	store.addLink(active, a)
	store.addLink(active, b)
	store.lectures[b].IsCanceled = true

	stats, err := svc.LecturerStats(context.Background(), "L")
	if err != nil {
		t.Fatalf("LecturerStats 应成功: %v", err)
	}
	if stats.Total != 3 || stats.Active != 1 || stats.Canceled != 1 {
		t.Errorf("期望 total=3 active=1 canceled=1，实际 %+v", stats)
	}
}

func intPtr(n int) *int { return &n }
