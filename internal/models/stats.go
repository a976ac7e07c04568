// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// PlatformStats are the aggregate counters shown on the admin dashboard.
type PlatformStats struct {
	Users       int `json:"users"`
	Invitations int `json:"invitations"`
	Published   int `json:"published"`
	Guests      int `json:"guests"`
	Attending   int `json:"attending"`
	Declined    int `json:"declined"`
	Pending     int `json:"pending"`
	TotalViews  int `json:"total_views"`
}
