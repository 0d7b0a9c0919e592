package handler

import "github.com/go-playground/validator/v10"

// Shared request validator; request structs carry `validate` tags.
var validate = validator.New()
