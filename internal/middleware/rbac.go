package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/atlas-lms/atlas-api/internal/utils"
)

// Capabilities granted to roles. Authorization decisions are made against
// capabilities, never by re-checking role names at call sites.
const (
	CapabilitySubmit = "submit"
	CapabilityGrade  = "grade"
	CapabilityManage = "manage"
	CapabilityView   = "view"
)

var roleCapabilities = map[string]map[string]struct{}{
	"student": {
		CapabilitySubmit: {},
		CapabilityView:   {},
	},
	"teacher": {
		CapabilityGrade:  {},
		CapabilityManage: {},
		CapabilityView:   {},
	},
	"admin": {
		CapabilityGrade:  {},
		CapabilityManage: {},
		CapabilitySubmit: {},
		CapabilityView:   {},
	},
}

// KnownRole reports whether the role appears in the capability table.
func KnownRole(role string) bool {
	_, ok := roleCapabilities[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// HasCapability reports whether the role is granted the capability.
func HasCapability(role, capability string) bool {
	caps, ok := roleCapabilities[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

// RequireCapability ensures the authenticated user's role carries the
// capability before the request reaches the handler.
func RequireCapability(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := normalizeRoleValue(c.Locals("user_role"))
		if !HasCapability(role, capability) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
