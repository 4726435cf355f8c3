package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/networkqy/internal/model"
)

// RegisterValidators 注册自定义 binding 规则；重复调用无副作用
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
		return model.Topic(fl.Field().String()).Valid()
	})
}

// bindReason 把校验失败转成简短的提示
func bindReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Malformed request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "topic":
		return "Invalid topic"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
