package forms

import (
	"net/url"

	"environovalab/labapi"
)

func Login(values url.Values) (labapi.Credentials, Errors) {
	errs := NewErrors()
	credentials := labapi.Credentials{
		Username: required(values, errs, "username"),
		Password: values.Get("password"),
	}
	if credentials.Password == "" {
		errs.Add("password", MsgRequired)
	}
	return credentials, errs
}

func Register(values url.Values) (labapi.Registration, Errors) {
	errs := NewErrors()
	registration := labapi.Registration{
		Username: required(values, errs, "username"),
		Email:    email(values, errs, "email"),
		Password: values.Get("password"),
	}
	if registration.Password == "" {
		errs.Add("password", MsgRequired)
	}
	return registration, errs
}

func ForgotPassword(values url.Values) (string, Errors) {
	errs := NewErrors()
	return email(values, errs, "email"), errs
}

func ResetPassword(values url.Values) (string, Errors) {
	errs := NewErrors()
	password := values.Get("password")
	if password == "" {
		errs.Add("password", MsgRequired)
	}
	confirmation := values.Get("password_confirmation")
	if confirmation == "" {
		errs.Add("password_confirmation", MsgRequired)
	} else if password != "" && confirmation != password {
		errs.Add("password_confirmation", MsgPasswordMismatch)
	}
	return password, errs
}

func NewUser(values url.Values) (labapi.NewUser, Errors) {
	errs := NewErrors()
	user := labapi.NewUser{
		Username: required(values, errs, "username"),
		Email:    email(values, errs, "email"),
		Password: values.Get("password"),
		IsAdmin:  checkbox(values, "is_admin"),
	}
	if user.Password == "" {
		errs.Add("password", MsgRequired)
	}
	return user, errs
}
