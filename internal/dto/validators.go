package dto

import (
	"github.com/go-playground/validator/v10"

	"campus-timetable/backend/internal/model"
)

// RegisterValidators 注册课表业务自定义校验规则
//
//	clock   "HH:MM" 或 "HH:MM:SS"
//	weekday SUN/MON/TUE/WED/THU/FRI/SAT
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("clock", validateClock); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", validateWeekday)
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := model.ParseClock(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, err := model.ParseWeekday(fl.Field().String())
	return err == nil
}
