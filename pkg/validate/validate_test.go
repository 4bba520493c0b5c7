package validate_test

import (
	"testing"

	"github.com/mealgrid/mealgrid/pkg/validate"
)

type signupInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
	Website   string `json:"website"   validate:"nullable,url"`
}

type foodInput struct {
	Title       string  `json:"title"       validate:"required,max=120"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required,numeric,gt=0"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(signupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "sufficiently-long",
		Website:   "", // nullable — allowed to be empty
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestAllViolationsReported(t *testing.T) {
	errs := validate.Struct(signupInput{
		Email:    "not-an-email",
		Password: "short",
	})
	for _, field := range []string{"firstName", "lastName", "email", "password"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be reported, got %v", field, errs)
		}
	}
}

func TestPasswordMinLength(t *testing.T) {
	errs := validate.Struct(signupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "1234567",
	})
	if _, ok := errs["password"]; !ok {
		t.Error("expected 7-char password to fail the min=8 rule")
	}
}

func TestPriceMustBePositive(t *testing.T) {
	errs := validate.Struct(foodInput{Title: "Pizza", Description: "cheese", Price: 0})
	if _, ok := errs["price"]; !ok {
		t.Errorf("expected price violation, got %v", errs)
	}

	errs = validate.Struct(foodInput{Title: "Pizza", Description: "cheese", Price: 10})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestInRuleKeepsMultiValueParam(t *testing.T) {
	type roleInput struct {
		Role string `json:"role" validate:"required,in=user,admin,max=20"`
	}
	if errs := validate.Struct(roleInput{Role: "admin"}); validate.HasErrors(errs) {
		t.Errorf("expected admin to be allowed, got %v", errs)
	}
	if errs := validate.Struct(roleInput{Role: "superuser"}); !validate.HasErrors(errs) {
		t.Error("expected superuser to be rejected")
	}
}
