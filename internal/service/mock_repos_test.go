package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"campus-timetable/backend/internal/model"
	"campus-timetable/backend/internal/repository"
	pkgerrors "campus-timetable/backend/pkg/errors"
)

// ── 内存存储 ──
// 各 mock repo 共享同一份数据，以模拟外键级联与跨表查询；读取返回副本，与数据库行为一致

type mockStore struct {
	classrooms map[string]*model.Classroom
	courses    map[string]*model.Course
	lectures   map[string]*model.Lecture
	timetables map[string]*model.Timetable
	links      map[string]*model.TimetableLink // key: timetableID/lectureID
	seq        int

	// linkCreateErr 非空时 TimetableLink.Create 返回该错误
	linkCreateErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		classrooms: make(map[string]*model.Classroom),
		courses:    make(map[string]*model.Course),
		lectures:   make(map[string]*model.Lecture),
		timetables: make(map[string]*model.Timetable),
		links:      make(map[string]*model.TimetableLink),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func linkKey(timetableID, lectureID string) string {
	return timetableID + "/" + lectureID
}

// lectureView 返回带预加载关联的课次副本
func (s *mockStore) lectureView(l *model.Lecture) model.Lecture {
	v := *l
	if c, ok := s.courses[l.CourseID]; ok {
		cc := *c
		v.Course = &cc
	}
	if c, ok := s.classrooms[l.ClassroomID]; ok {
		cc := *c
		v.Classroom = &cc
	}
	return v
}

func (s *mockStore) activeTimetableID() string {
	for id, t := range s.timetables {
		if t.IsActive {
			return id
		}
	}
	return ""
}

func (s *mockStore) visibleIn(timetableID, lectureID string) bool {
	link, ok := s.links[linkKey(timetableID, lectureID)]
	return ok && link.IsActive
}

func (s *mockStore) deleteLecture(id string) {
	delete(s.lectures, id)
	for k, link := range s.links {
		if link.LectureID == id {
			delete(s.links, k)
		}
	}
}

func (s *mockStore) deleteCourse(id string) {
	delete(s.courses, id)
	for lid, l := range s.lectures {
		if l.CourseID == id {
			s.deleteLecture(lid)
		}
	}
}

// ── 测试数据构造 ──

func (s *mockStore) addClassroom(name string) string {
	id := s.nextID("room")
	s.classrooms[id] = &model.Classroom{ClassroomID: id, Name: name}
	return id
}

func (s *mockStore) addCourse(code, lecturerID, classroomID string) string {
	id := s.nextID("course")
	s.courses[id] = &model.Course{CourseID: id, Code: code, Name: "课程" + code, LecturerID: lecturerID, ClassroomID: classroomID}
	return id
}

func (s *mockStore) addLecture(classroomID, courseID string, day model.Weekday, start, end string) string {
	id := s.nextID("lecture")
	l := &model.Lecture{LectureID: id, ClassroomID: classroomID, CourseID: courseID, DayOfWeek: day, StartTime: start, EndTime: end}
	l.Version = 1
	s.lectures[id] = l
	return id
}

func (s *mockStore) addTimetable(name string, active bool) string {
	id := s.nextID("tt")
	s.timetables[id] = &model.Timetable{TimetableID: id, Name: name, IsActive: active}
	return id
}

func (s *mockStore) addLink(timetableID, lectureID string) {
	s.links[linkKey(timetableID, lectureID)] = &model.TimetableLink{
		LinkID: s.nextID("link"), TimetableID: timetableID, LectureID: lectureID, IsActive: true,
	}
}

// newMockRepository 组装基于内存存储的 Repository 聚合（db 为 nil，Transaction 直接执行）
func newMockRepository(store *mockStore) *repository.Repository {
	return &repository.Repository{
		Classroom:     &mockClassroomRepo{store: store},
		Course:        &mockCourseRepo{store: store},
		Lecture:       &mockLectureRepo{store: store},
		Timetable:     &mockTimetableRepo{store: store},
		TimetableLink: &mockTimetableLinkRepo{store: store},
	}
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	store *mockStore
}

func (m *mockClassroomRepo) Create(_ context.Context, classroom *model.Classroom) error {
	if classroom.ClassroomID == "" {
		classroom.ClassroomID = m.store.nextID("room")
	}
	c := *classroom
	m.store.classrooms[c.ClassroomID] = &c
	return nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	if c, ok := m.store.classrooms[id]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) List(_ context.Context) ([]model.Classroom, error) {
	var result []model.Classroom
	for _, c := range m.store.classrooms {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockClassroomRepo) Update(_ context.Context, classroom *model.Classroom) error {
	c := *classroom
	m.store.classrooms[c.ClassroomID] = &c
	return nil
}

func (m *mockClassroomRepo) Delete(_ context.Context, id string) error {
	delete(m.store.classrooms, id)
	// 模拟外键级联
	for cid, c := range m.store.courses {
		if c.ClassroomID == id {
			m.store.deleteCourse(cid)
		}
	}
	for lid, l := range m.store.lectures {
		if l.ClassroomID == id {
			m.store.deleteLecture(lid)
		}
	}
	for tid, t := range m.store.timetables {
		if t.ClassroomID != nil && *t.ClassroomID == id {
			delete(m.store.timetables, tid)
		}
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	store *mockStore
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	for _, c := range m.store.courses {
		if c.Code == course.Code {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_courses_code"}
		}
	}
	if course.CourseID == "" {
		course.CourseID = m.store.nextID("course")
	}
	c := *course
	c.Classroom = nil
	m.store.courses[c.CourseID] = &c
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.store.courses[id]; ok {
		cc := *c
		if room, ok := m.store.classrooms[c.ClassroomID]; ok {
			r := *room
			cc.Classroom = &r
		}
		return &cc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.store.courses {
		if c.Code == code {
			cc := *c
			return &cc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context, classroomID, lecturerID string) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.store.courses {
		if classroomID != "" && c.ClassroomID != classroomID {
			continue
		}
		if lecturerID != "" && c.LecturerID != lecturerID {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	c := *course
	c.Classroom = nil
	m.store.courses[c.CourseID] = &c
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	m.store.deleteCourse(id)
	return nil
}

// ── Mock LectureRepository ──

type mockLectureRepo struct {
	store *mockStore
}

func (m *mockLectureRepo) Create(_ context.Context, lecture *model.Lecture) error {
	if lecture.LectureID == "" {
		lecture.LectureID = m.store.nextID("lecture")
	}
	if lecture.Version == 0 {
		lecture.Version = 1
	}
	l := *lecture
	l.Course, l.Classroom, l.Links = nil, nil, nil
	m.store.lectures[l.LectureID] = &l
	return nil
}

func (m *mockLectureRepo) GetByID(_ context.Context, id string) (*model.Lecture, error) {
	if l, ok := m.store.lectures[id]; ok {
		v := m.store.lectureView(l)
		return &v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLectureRepo) List(_ context.Context, filter repository.LectureFilter) ([]model.Lecture, error) {
	activeID := m.store.activeTimetableID()

	var result []model.Lecture
	for _, l := range m.store.lectures {
		if filter.DayOfWeek != nil && l.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		if filter.ClassroomID != "" && l.ClassroomID != filter.ClassroomID {
			continue
		}
		if filter.CourseID != "" && l.CourseID != filter.CourseID {
			continue
		}
		if filter.LecturerID != "" {
			c, ok := m.store.courses[l.CourseID]
			if !ok || c.LecturerID != filter.LecturerID {
				continue
			}
		}
		if filter.TimetableID != "" && !m.store.visibleIn(filter.TimetableID, l.LectureID) {
			continue
		}
		if filter.ActiveTimetableOnly && (activeID == "" || !m.store.visibleIn(activeID, l.LectureID)) {
			continue
		}
		if filter.Canceled != nil && l.IsCanceled != *filter.Canceled {
			continue
		}
		result = append(result, m.store.lectureView(l))
	}
	sortLectures(result)
	return result, nil
}

func (m *mockLectureRepo) ListSameDay(_ context.Context, day model.Weekday, classroomID, lecturerID string) ([]model.Lecture, error) {
	var result []model.Lecture
	for _, l := range m.store.lectures {
		if l.DayOfWeek != day {
			continue
		}
		sameLecturer := false
		if c, ok := m.store.courses[l.CourseID]; ok && lecturerID != "" && c.LecturerID == lecturerID {
			sameLecturer = true
		}
		if (classroomID != "" && l.ClassroomID == classroomID) || sameLecturer {
			result = append(result, m.store.lectureView(l))
		}
	}
	sortLectures(result)
	return result, nil
}

func (m *mockLectureRepo) Update(_ context.Context, lecture *model.Lecture) error {
	stored, ok := m.store.lectures[lecture.LectureID]
	if !ok || stored.Version != lecture.Version {
		return pkgerrors.ErrOptimisticLock
	}
	lecture.Version++
	l := *lecture
	l.Course, l.Classroom, l.Links = nil, nil, nil
	m.store.lectures[l.LectureID] = &l
	return nil
}

func (m *mockLectureRepo) Delete(_ context.Context, id string) error {
	m.store.deleteLecture(id)
	return nil
}

func (m *mockLectureRepo) StatsByLecturer(_ context.Context, lecturerID string) (*repository.LecturerStats, error) {
	activeID := m.store.activeTimetableID()
	stats := &repository.LecturerStats{}
	for _, l := range m.store.lectures {
		c, ok := m.store.courses[l.CourseID]
		if !ok || c.LecturerID != lecturerID {
			continue
		}
		stats.Total++
		if l.IsCanceled {
			stats.Canceled++
		} else if activeID != "" && m.store.visibleIn(activeID, l.LectureID) {
			stats.Active++
		}
	}
	return stats, nil
}

func sortLectures(lectures []model.Lecture) {
	sort.Slice(lectures, func(i, j int) bool {
		a, b := lectures[i], lectures[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.LectureID < b.LectureID
	})
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	store *mockStore
}

func (m *mockTimetableRepo) Create(_ context.Context, timetable *model.Timetable) error {
	if timetable.TimetableID == "" {
		timetable.TimetableID = m.store.nextID("tt")
	}
	t := *timetable
	m.store.timetables[t.TimetableID] = &t
	return nil
}

func (m *mockTimetableRepo) get(match func(t *model.Timetable) bool) (*model.Timetable, error) {
	for _, t := range m.store.timetables {
		if match(t) {
			tt := *t
			return &tt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.Timetable, error) {
	return m.get(func(t *model.Timetable) bool { return t.TimetableID == id })
}

func (m *mockTimetableRepo) GetByClassroom(_ context.Context, classroomID string) (*model.Timetable, error) {
	return m.get(func(t *model.Timetable) bool { return t.ClassroomID != nil && *t.ClassroomID == classroomID })
}

func (m *mockTimetableRepo) GetActive(_ context.Context) (*model.Timetable, error) {
	return m.get(func(t *model.Timetable) bool { return t.IsActive })
}

func (m *mockTimetableRepo) LockActive(ctx context.Context) (*model.Timetable, error) {
	return m.GetActive(ctx)
}

func (m *mockTimetableRepo) List(_ context.Context) ([]model.Timetable, error) {
	var result []model.Timetable
	for _, t := range m.store.timetables {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsActive != result[j].IsActive {
			return result[i].IsActive
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockTimetableRepo) Update(_ context.Context, timetable *model.Timetable) error {
	if t, ok := m.store.timetables[timetable.TimetableID]; ok {
		t.Name = timetable.Name
		t.Description = timetable.Description
		t.UpdatedBy = timetable.UpdatedBy
	}
	return nil
}

func (m *mockTimetableRepo) SetActive(_ context.Context, id string, active bool, updatedBy *string) error {
	if active {
		// 模拟部分唯一索引 uniq_timetables_active
		for tid, t := range m.store.timetables {
			if t.IsActive && tid != id {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_timetables_active"}
			}
		}
	}
	if t, ok := m.store.timetables[id]; ok {
		t.IsActive = active
		t.UpdatedBy = updatedBy
	}
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string) error {
	delete(m.store.timetables, id)
	for k, link := range m.store.links {
		if link.TimetableID == id {
			delete(m.store.links, k)
		}
	}
	return nil
}

func (m *mockTimetableRepo) DeleteByClassroom(ctx context.Context, classroomID string) (int64, error) {
	t, err := m.GetByClassroom(ctx, classroomID)
	if err != nil {
		return 0, nil
	}
	return 1, m.Delete(ctx, t.TimetableID)
}

// ── Mock TimetableLinkRepository ──

type mockTimetableLinkRepo struct {
	store *mockStore
}

func (m *mockTimetableLinkRepo) Create(_ context.Context, link *model.TimetableLink) error {
	if m.store.linkCreateErr != nil {
		return m.store.linkCreateErr
	}
	key := linkKey(link.TimetableID, link.LectureID)
	if _, ok := m.store.links[key]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_timetable_links_pair"}
	}
	if link.LinkID == "" {
		link.LinkID = m.store.nextID("link")
	}
	l := *link
	l.Lecture, l.Timetable = nil, nil
	m.store.links[key] = &l
	return nil
}

func (m *mockTimetableLinkRepo) Get(_ context.Context, timetableID, lectureID string) (*model.TimetableLink, error) {
	if l, ok := m.store.links[linkKey(timetableID, lectureID)]; ok {
		ll := *l
		return &ll, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableLinkRepo) ListByTimetable(_ context.Context, timetableID string) ([]model.TimetableLink, error) {
	var result []model.TimetableLink
	for _, l := range m.store.links {
		if l.TimetableID != timetableID {
			continue
		}
		ll := *l
		if lec, ok := m.store.lectures[l.LectureID]; ok {
			v := m.store.lectureView(lec)
			ll.Lecture = &v
		}
		result = append(result, ll)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LectureID < result[j].LectureID })
	return result, nil
}

func (m *mockTimetableLinkRepo) SetActive(_ context.Context, timetableID, lectureID string, active bool, updatedBy *string) (int64, error) {
	l, ok := m.store.links[linkKey(timetableID, lectureID)]
	if !ok {
		return 0, nil
	}
	l.IsActive = active
	l.UpdatedBy = updatedBy
	return 1, nil
}

func (m *mockTimetableLinkRepo) Delete(_ context.Context, timetableID, lectureID string) (int64, error) {
	key := linkKey(timetableID, lectureID)
	if _, ok := m.store.links[key]; !ok {
		return 0, nil
	}
	delete(m.store.links, key)
	return 1, nil
}
