// Package authz is the single access-policy evaluator. Every handler
// consults it before touching an entity, instead of repeating role
// checks per route. Decisions are pure functions of the actor, the
// action, and the owner references of the target resource; the
// evaluator never errors — unknown combinations deny.
package authz

import "github.com/google/uuid"

// Role of an authenticated actor.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Action performed on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource kinds the policy distinguishes.
type Resource string

const (
	ResourceUser          Resource = "user"
	ResourcePatient       Resource = "patient"
	ResourceDoctor        Resource = "doctor"
	ResourceRelationship  Resource = "patient_doctor_relationship"
	ResourceAppointment   Resource = "appointment"
	ResourceMedicalRecord Resource = "medical_record"
	ResourceAuditLog      Resource = "audit_log"
)

// Actor is the authenticated identity issuing a request. PatientID and
// DoctorID are the actor's profile ids, nil when the role has no such
// profile.
type Actor struct {
	UserID    uuid.UUID
	Role      Role
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// OwnerRefs are the ownership fields of the target resource instance.
// Zero-value fields mean "not applicable" for that resource kind.
type OwnerRefs struct {
	PatientID *uuid.UUID // owning patient profile
	DoctorID  *uuid.UUID // owning doctor profile
	UserID    *uuid.UUID // owning user account (profiles)
	CreatedBy *uuid.UUID // authoring user (medical records)
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// CanAccess evaluates the rule set in order; the first match wins and the
// default is deny.
func CanAccess(actor Actor, action Action, resource Resource, refs OwnerRefs) Decision {
	// 1. Admins may do everything.
	if actor.Role == RoleAdmin {
		return allow("admin role")
	}

	switch actor.Role {
	case RoleDoctor:
		return evalDoctor(actor, action, resource, refs)
	case RolePatient:
		return evalPatient(actor, action, resource, refs)
	}
	return deny("unknown role")
}

func evalDoctor(actor Actor, action Action, resource Resource, refs OwnerRefs) Decision {
	// 2. Doctors create relationships, appointments, and records only
	// for themselves.
	if action == ActionCreate {
		switch resource {
		case ResourceRelationship, ResourceAppointment, ResourceMedicalRecord:
			if matches(actor.DoctorID, refs.DoctorID) {
				return allow("doctor owns resource")
			}
			return deny("doctor may only create own resources")
		case ResourceDoctor:
			if matches(&actor.UserID, refs.UserID) {
				return allow("own doctor profile")
			}
			return deny("doctor profile belongs to another user")
		}
		return deny("doctors may not create this resource")
	}

	// 3. Doctors read and update resources they own; a record's author
	// may also update it.
	if action == ActionRead || action == ActionUpdate {
		if matches(actor.DoctorID, refs.DoctorID) {
			return allow("doctor owns resource")
		}
		if resource == ResourceMedicalRecord && action == ActionUpdate &&
			matches(&actor.UserID, refs.CreatedBy) {
			return allow("record author")
		}
		if (resource == ResourceDoctor || resource == ResourceUser) &&
			matches(&actor.UserID, refs.UserID) {
			return allow("own account")
		}
		return deny("resource belongs to another doctor")
	}

	return deny("doctors may not delete resources")
}

func evalPatient(actor Actor, action Action, resource Resource, refs OwnerRefs) Decision {
	// 4. Patients read only their own resources.
	if action == ActionRead {
		if matches(actor.PatientID, refs.PatientID) {
			return allow("patient owns resource")
		}
		if (resource == ResourcePatient || resource == ResourceUser) &&
			matches(&actor.UserID, refs.UserID) {
			return allow("own account")
		}
		return deny("resource belongs to another patient")
	}

	// 6. Patients never write medical records, and never touch another
	// actor's appointment.
	if resource == ResourceMedicalRecord {
		return deny("patients may not modify medical records")
	}

	// 5. Patients create and update their own patient profile.
	if action == ActionCreate || action == ActionUpdate {
		switch resource {
		case ResourcePatient, ResourceUser:
			if matches(&actor.UserID, refs.UserID) {
				return allow("own profile")
			}
			return deny("profile belongs to another user")
		case ResourceAppointment, ResourceRelationship:
			if matches(actor.PatientID, refs.PatientID) {
				return allow("patient owns resource")
			}
			return deny("resource belongs to another patient")
		}
	}

	// 7. Default deny.
	return deny("not permitted")
}

func matches(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}
