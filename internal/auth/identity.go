package auth

import (
	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
)

// Identity is the verified caller attached to a request.
type Identity struct {
	AccountID string
	Name      string
	Email     string
	Role      string
}

func IdentityOf(u *models.User) *Identity {
	return &Identity{
		AccountID: u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
	}
}

func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == models.RoleAdmin
}

// RequireRole fails with Forbidden unless the identity holds role.
func RequireRole(id *Identity, role string) error {
	if id == nil {
		return apperr.Unauthorized("Not authorized, no token")
	}
	if id.Role != role {
		return apperr.Forbidden("Not authorized as an " + role)
	}
	return nil
}

// Owns is the single ownership comparison used for owned resources.
func Owns(id *Identity, ownerID string) bool {
	return id != nil && ownerID != "" && id.AccountID == ownerID
}

// RequireOwner fails with Forbidden unless the identity owns the resource.
func RequireOwner(id *Identity, ownerID, action string) error {
	if !Owns(id, ownerID) {
		return apperr.Forbidden("Not authorized to " + action)
	}
	return nil
}

// RequireOwnerOrAdmin lets catalog managers through in addition to the owner.
func RequireOwnerOrAdmin(id *Identity, ownerID, action string) error {
	if id.IsAdmin() {
		return nil
	}
	return RequireOwner(id, ownerID, action)
}
