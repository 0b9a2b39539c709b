package webex

import (
	"context"
	"log/slog"

	"callgate/internal/monitor"
)

// OrgRoster lists the organization's calling-enabled people and resolves
// their XSI identities, feeding the monitor's directory snapshot.
type OrgRoster struct {
	api *Client
	xsi *XSI
	log *slog.Logger
}

func NewOrgRoster(api *Client, xsi *XSI, log *slog.Logger) *OrgRoster {
	if log == nil {
		log = slog.Default()
	}
	return &OrgRoster{api: api, xsi: xsi, log: log}
}

func (r *OrgRoster) People(ctx context.Context) ([]monitor.Person, error) {
	people, err := r.api.ListCallingPeople(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]monitor.Person, 0, len(people))
	for _, p := range people {
		xsiID, err := r.xsi.Profile(ctx, p.ID)
		if err != nil {
			// A member without an XSI profile cannot place or receive
			// calls through this org, so they are not monitored.
			r.log.Warn("skipping member without xsi profile",
				"person_id", p.ID, "error", err)
			continue
		}

		member := monitor.Person{
			AccountID:   p.ID,
			DisplayName: p.DisplayName,
			XSIUserID:   xsiID,
			Session:     r.xsi.Session(xsiID),
		}
		if num, ok := p.PrimaryNumber(); ok {
			member.PhoneNumber = num.DirectNumber
			member.Extension = num.Extension
		}
		members = append(members, member)
	}
	return members, nil
}
