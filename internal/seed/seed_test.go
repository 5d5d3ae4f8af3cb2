package seed

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"classattend/internal/account"
	"classattend/internal/auth"
	"classattend/internal/roster"
	"classattend/internal/store/storetest"
)

func TestDemo(t *testing.T) {
	ctx := context.Background()
	db := storetest.New(t)
	rosterRepo := roster.NewRepository(db.Client)
	users := account.NewRepository(db.Client)

	res, err := Demo(ctx, rosterRepo, users, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if res.Skipped || res.Classes != 4 || res.Students != 11 || res.Users != 3 {
		t.Fatalf("result = %+v", res)
	}

	students, err := rosterRepo.ListStudents(ctx, "1-A")
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 4 {
		t.Errorf("1-A students = %d, want 4", len(students))
	}

	svc := auth.NewService(users, auth.NewTokens("k", "test", time.Hour), nil)
	session, err := svc.Authenticate(ctx, "ST123", "student123", auth.KindRegistrationNumber)
	if err != nil {
		t.Fatalf("demo student login: %v", err)
	}
	if session.Role != account.RoleStudent {
		t.Errorf("role = %s", session.Role)
	}

	again, err := Demo(ctx, rosterRepo, users, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("second Demo: %v", err)
	}
	if !again.Skipped {
		t.Error("second run should be skipped")
	}
}
