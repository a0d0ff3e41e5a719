package org

import "github.com/Abraxas-365/propcore/pkg/errx"

var ErrRegistry = errx.NewRegistry("ORG")

var (
	ErrOrganizationNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 0, "Organization not found")
	ErrOrganizationExists   = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, 0, "An organization with this name already exists")
	ErrPropertyNotFound     = ErrRegistry.Register("PROPERTY_NOT_FOUND", errx.TypeNotFound, 0, "Property not found")
	ErrMembershipNotFound   = ErrRegistry.Register("MEMBERSHIP_NOT_FOUND", errx.TypeNotFound, 0, "Membership not found")
	ErrMembershipExists     = ErrRegistry.Register("MEMBERSHIP_EXISTS", errx.TypeConflict, 0, "Membership already exists")
)
