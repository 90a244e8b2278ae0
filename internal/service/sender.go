package service

import (
	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/emailerror"
	"github.com/sendgate/sendgate/pkg/logger"
)

// resolveSenderIdentity picks the from identity for a send. A tenant with a
// default from address keeps it only while its default domain is verified;
// everything else falls back to the gateway identity. Suspended tenants are
// rejected outright.
func resolveSenderIdentity(opts domain.SendOptions, fallbackAddr, fallbackName string, log logger.Logger) (name, address string, cerr *emailerror.ClassifiedError) {
	if opts.Tenant != nil && opts.Tenant.IsSuspended {
		return "", "", emailerror.Permanent(emailerror.CodeAccountPaused, "tenant sending is suspended")
	}

	if opts.Tenant != nil && opts.Tenant.DefaultFromAddress != nil && *opts.Tenant.DefaultFromAddress != "" {
		if opts.Domain != nil && opts.Domain.Status == domain.DomainStatusVerified {
			address = *opts.Tenant.DefaultFromAddress
			if opts.Tenant.DefaultFromName != nil {
				name = *opts.Tenant.DefaultFromName
			}
			return name, address, nil
		}
		log.WithFields(map[string]interface{}{
			"tenant_id": opts.Tenant.ID,
		}).Warn("Tenant default domain is not verified, falling back to gateway from address")
	}

	return fallbackName, fallbackAddr, nil
}
