// Package iam (Identity and Access Management) provides registration,
// password login, refresh-token sessions, per-property authorization and
// invite-based provisioning for property organizations.
//
// # Overview
//
//   - iam/identity: opaque public ids resolved to internal keys
//   - iam/token: signed access and refresh tokens
//   - iam/session: refresh-token sessions with single-use rotation
//   - iam/access: request authorization against memberships
//   - iam/auth: register, login, refresh, logout, me
//   - iam/invitation: create, deliver, accept and revoke invites
//   - iam/user, iam/org: entities, memberships and their repositories
//   - iam/iammemory: in-process store for development and tests
//   - iam/iamcontainer: wires the module from config
//
// # Architecture
//
//	HTTP Handler  →  Service Layer  →  Repository Interface  →  Infrastructure (Postgres/Redis)
//
// Each sub-domain exposes its own error registry (e.g. "AUTH", "USER",
// "INVITE"), entities with DTOs for API responses, and repository
// interfaces. Public responses carry opaque ids only; internal keys refuse
// to marshal.
//
// # Roles
//
// A user has exactly one type:
//
//	org_owner, org_admin → organization scope, through an OrgAdmin link
//	staff                → property scope, manager or member
//	tenant               → property scope, optional unit number
//
// # Sessions
//
// Login issues a short-lived access token and a refresh token. Only a keyed
// hash of the refresh token is stored. Rotation consumes the session row
// atomically so a replayed token fails, and logout is idempotent.
//
// # Authorization
//
// access.Resolver checks a requirement against a scope taken from the
// route. Staff must have a non-archived link to the property, with the
// manager role when the requirement asks for it. Tenants need a tenancy.
// Org owners and admins pass for every property of their organization.
// Anything unresolved is denied.
//
// # Invites
//
// An org admin invites by e-mail or phone. The invite carries the role, the
// property and the role details, and expires after seven days. Accepting
// creates the user and the membership in one transaction and starts a
// session.
package iam
