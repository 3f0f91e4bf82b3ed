package prompts

import (
	"strings"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
)

type Validator func(Input) error

func RequireChallenge() Validator {
	return func(in Input) error {
		if in.Challenge == nil {
			return apperr.New(apperr.KindValidation, "challenge required")
		}
		return nil
	}
}

func RequireUserResponse() Validator {
	return func(in Input) error {
		if strings.TrimSpace(in.UserResponse) == "" {
			return apperr.New(apperr.KindValidation, "user response required")
		}
		return nil
	}
}

func RequireUser() Validator {
	return func(in Input) error {
		if in.User == nil && in.UserContext == nil {
			return apperr.New(apperr.KindValidation, "user profile required")
		}
		return nil
	}
}

func validate(in Input, validators ...Validator) error {
	for _, v := range validators {
		if v == nil {
			continue
		}
		if err := v(in); err != nil {
			return err
		}
	}
	return nil
}
