package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldErrors map[string]string

// FromBindError maps a gin bind error to field -> message, keyed by the json tag
// of dst (the struct pointer that was bound).
func FromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldKey(dst, fe.StructField())] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}

	// malformed JSON, wrong types
	out["_"] = "Format data tidak valid."
	return out
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return lowerFirst(structField)
	}

	f, ok := t.FieldByName(structField)
	if !ok {
		return lowerFirst(structField)
	}
	tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return lowerFirst(structField)
	}
	return tag
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "Wajib diisi."
	case "email":
		return "Alamat email tidak valid."
	case "min":
		return "Minimal " + param + " karakter."
	case "max":
		return "Maksimal " + param + " karakter."
	case "gt", "gte":
		return "Nilai harus lebih besar dari " + param + "."
	case "url":
		return "URL tidak valid."
	default:
		return "Nilai tidak valid."
	}
}
