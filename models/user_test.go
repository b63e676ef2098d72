package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{"customer role", RoleCustomer, true},
		{"sales role", RoleSales, true},
		{"stock role", RoleStock, true},
		{"tailor role", RoleTailor, true},
		{"qc role", RoleQC, true},
		{"admin role", RoleAdmin, true},
		{"unknown role", "technician", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidRole(tt.role))
		})
	}
}

func TestActorFor(t *testing.T) {
	user := User{
		ID:    42,
		Name:  "Fatima",
		Email: "fatima@example.com",
		Role:  RoleSales,
	}

	actor := ActorFor(&user)
	assert.Equal(t, uint(42), actor.UserID)
	assert.Equal(t, "Fatima", actor.Name)
	assert.Equal(t, RoleSales, actor.Role)
}

func TestActorIsAdmin(t *testing.T) {
	assert.True(t, Actor{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Actor{Role: RoleSales}.IsAdmin())
	assert.False(t, Actor{Role: RoleCustomer}.IsAdmin())
}

func TestActorHasAnyRole(t *testing.T) {
	actor := Actor{Role: RoleTailor}

	assert.True(t, actor.HasAnyRole(RoleTailor))
	assert.True(t, actor.HasAnyRole(RoleQC, RoleTailor))
	assert.False(t, actor.HasAnyRole(RoleQC, RoleAdmin))
	assert.False(t, actor.HasAnyRole())
}
