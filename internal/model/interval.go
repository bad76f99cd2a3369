package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTimeOrder 开始时间不早于结束时间
var ErrTimeOrder = errors.New("开始时间必须早于结束时间")

// ── 星期 ──

// Weekday 星期，0=周日 … 6=周六（与 time.Weekday 一致）
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayCodes = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// WeekdayCodes 对外接口使用的星期编码，按周日起排序
func WeekdayCodes() []string {
	return weekdayCodes[:]
}

// ParseWeekday 解析 SUN/MON/... 编码（大小写不敏感）
func ParseWeekday(code string) (Weekday, error) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	for i, c := range weekdayCodes {
		if c == upper {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("无效的星期编码 %q", code)
}

// Valid 是否在 0-6 范围内
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// String 返回星期编码
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayCodes[d]
}

// ── 时刻 ──

// ClockTime 一天内的时刻，单位为自零点起的秒数
type ClockTime int

// ParseClock 解析 "HH:MM" 或 "HH:MM:SS"（PostgreSQL time 列的文本形式）
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("无效的时间格式 %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("无效的小时 %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的分钟 %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("无效的秒 %q", s)
		}
	}
	return ClockTime(h*3600 + m*60 + sec), nil
}

// MustParseClock 仅用于常量与测试
func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String 整分钟格式化为 "HH:MM"，否则为 "HH:MM:SS"
func (c ClockTime) String() string {
	h, m, sec := int(c)/3600, int(c)%3600/60, int(c)%60
	if sec == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// ── 时间区间 ──

// Interval 某个星期内的 [Start, End) 半开区间
type Interval struct {
	Day   Weekday
	Start ClockTime
	End   ClockTime
}

// NewInterval 由编码与文本构造区间，不校验先后顺序
func NewInterval(day Weekday, start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Day: day, Start: s, End: e}, nil
}

// Validate 校验开始时间严格早于结束时间
func (iv Interval) Validate() error {
	if !iv.Day.Valid() {
		return fmt.Errorf("无效的星期 %d", int(iv.Day))
	}
	if iv.Start >= iv.End {
		return ErrTimeOrder
	}
	return nil
}

// Overlaps 同一天且 a.Start < b.End && b.Start < a.End；首尾相接不算重叠
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Day == other.Day && iv.Start < other.End && other.Start < iv.End
}

// String 形如 "MON 09:00-10:00"
func (iv Interval) String() string {
	return fmt.Sprintf("%s %s-%s", iv.Day, iv.Start, iv.End)
}
