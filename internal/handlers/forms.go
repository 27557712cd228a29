package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

var decoder = newDecoder()

var validate = validator.New()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type thoughtForm struct {
	Content        string `schema:"content" validate:"required,max=280"`
	EmotionTag     string `schema:"emotion_tag" validate:"omitempty,uuid"`
	IsPublic       string `schema:"is_public"`
	IsDailyThought string `schema:"is_daily_thought"`
}

type signupForm struct {
	Email     string `schema:"email"`
	Password1 string `schema:"password1"`
	Password2 string `schema:"password2"`
}

type loginForm struct {
	Email    string `schema:"email" validate:"required"`
	Password string `schema:"password" validate:"required"`
	Next     string `schema:"next"`
}

// decodeForm parses the POST body into dst.
func decodeForm(r *http.Request, dst interface{}) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return decoder.Decode(dst, r.PostForm)
}

// checked reads an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(v) {
	case "true", "on", "1":
		return true
	}
	return false
}

// fieldMessages turns validator failures into per-field form messages.
func fieldMessages(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		field := formField(fe.StructField())
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required."
		case "max":
			n := utf8.RuneCountInString(fmt.Sprint(fe.Value()))
			out[field] = fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), n)
		case "uuid":
			out[field] = "Select a valid emotion."
		default:
			out[field] = "Enter a valid value."
		}
	}
	return out
}

var formFields = map[string]string{
	"Content":    "content",
	"EmotionTag": "emotion_tag",
	"Email":      "email",
	"Password":   "password",
}

func formField(structField string) string {
	if f, ok := formFields[structField]; ok {
		return f
	}
	return strings.ToLower(structField)
}

// values echoes the submitted thought back into the form.
func (f *thoughtForm) values() map[string]string {
	v := map[string]string{
		"content":     f.Content,
		"emotion_tag": f.EmotionTag,
	}
	if checked(f.IsPublic) {
		v["is_public"] = "true"
	}
	if checked(f.IsDailyThought) {
		v["is_daily_thought"] = "true"
	}
	return v
}

// parse validates the form shape and converts it to service input.
func (f *thoughtForm) parse() (services.ThoughtInput, *web.Form) {
	f.Content = strings.TrimSpace(f.Content)
	f.EmotionTag = strings.TrimSpace(f.EmotionTag)
	form := web.NewForm(f.values())

	if err := validate.Struct(f); err != nil {
		form.Errors = fieldMessages(err)
		return services.ThoughtInput{}, form
	}

	in := services.ThoughtInput{
		Content:        f.Content,
		IsPublic:       checked(f.IsPublic),
		IsDailyThought: checked(f.IsDailyThought),
	}
	if f.EmotionTag != "" {
		id, err := uuid.Parse(f.EmotionTag)
		if err != nil {
			form.Errors["emotion_tag"] = "Select a valid emotion."
			return in, form
		}
		in.EmotionTagID = uuid.NullUUID{UUID: id, Valid: true}
	}
	return in, form
}

// thoughtValues fills the edit form from a stored thought.
func thoughtValues(t *models.Thought) map[string]string {
	v := map[string]string{"content": t.Content}
	if t.EmotionTagID.Valid {
		v["emotion_tag"] = t.EmotionTagID.UUID.String()
	}
	if t.IsPublic {
		v["is_public"] = "true"
	}
	return v
}

// applyError puts a service validation error on the form. It reports false
// for errors that are not about user input.
func applyError(form *web.Form, err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case models.CodeValidation, models.CodeConflict:
		if appErr.Field != "" {
			form.Errors[appErr.Field] = appErr.Message
		} else {
			form.Error = appErr.Message
		}
		return true
	}
	return false
}
