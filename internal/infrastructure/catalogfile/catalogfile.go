// Package catalogfile lee el catálogo (planes, módulos, permisos, roles) y, opcionalmente,
// datos de desarrollo (organizaciones, suscripciones, membresías, activaciones) desde YAML.
package catalogfile

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

type fileDoc struct {
	Plans         []planDoc         `yaml:"plans"`
	Modules       []moduleDoc       `yaml:"modules"`
	Permissions   []permissionDoc   `yaml:"permissions"`
	Roles         []roleDoc         `yaml:"roles"`
	Organizations []organizationDoc `yaml:"organizations"`
	Memberships   []membershipDoc   `yaml:"memberships"`
	Activations   []activationDoc   `yaml:"activations"`
}

type planDoc struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	MaxModules   int    `yaml:"max_modules"`
	MaxBranches  int    `yaml:"max_branches"`
	MaxUsers     int    `yaml:"max_users"`
	MonthlyPrice string `yaml:"monthly_price"`
}

type moduleDoc struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Requires []string `yaml:"requires"`
}

type permissionDoc struct {
	Code   string `yaml:"code"`
	Module string `yaml:"module"`
}

type roleDoc struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	IsSuperAdmin bool     `yaml:"is_super_admin"`
	Permissions  []string `yaml:"permissions"`
}

type organizationDoc struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Status       string           `yaml:"status"`
	Subscription *subscriptionDoc `yaml:"subscription"`
}

type subscriptionDoc struct {
	Plan        string     `yaml:"plan"`
	Status      string     `yaml:"status"`
	PeriodStart time.Time  `yaml:"period_start"`
	PeriodEnd   *time.Time `yaml:"period_end"`
	TrialEnd    *time.Time `yaml:"trial_end"`
}

type membershipDoc struct {
	UserID         string `yaml:"user_id"`
	OrganizationID string `yaml:"organization_id"`
	RoleID         string `yaml:"role_id"`
	IsSuperAdmin   bool   `yaml:"is_super_admin"`
	Inactive       bool   `yaml:"inactive"`
}

type activationDoc struct {
	OrganizationID string `yaml:"organization_id"`
	Module         string `yaml:"module"`
	ActivatedBy    string `yaml:"activated_by"`
}

// Data es el contenido del archivo ya convertido a entidades. Catalog aún no está validado:
// pasarlo por catalog.New.
type Data struct {
	Catalog         catalog.Snapshot
	Roles           []entity.Role
	RolePermissions []entity.RolePermission
	Organizations   []entity.Organization
	Subscriptions   []entity.Subscription
	Memberships     []entity.Membership
	Activations     []entity.ModuleActivation
}

// Load lee y convierte el archivo en path.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo %s: %w", path, err)
	}
	data, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Parse convierte el YAML en Data. Solo valida la forma; las reglas del catálogo las aplica catalog.New.
func Parse(raw []byte) (*Data, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("yaml inválido: %w", err)
	}

	out := &Data{}
	for _, p := range doc.Plans {
		price := decimal.Zero
		if s := strings.TrimSpace(p.MonthlyPrice); s != "" {
			var err error
			if price, err = decimal.NewFromString(s); err != nil {
				return nil, fmt.Errorf("plan %q: monthly_price inválido: %w", p.Code, err)
			}
		}
		out.Catalog.Plans = append(out.Catalog.Plans, entity.Plan{
			Code:         p.Code,
			Name:         p.Name,
			MaxModules:   p.MaxModules,
			MaxBranches:  p.MaxBranches,
			MaxUsers:     p.MaxUsers,
			MonthlyPrice: price,
		})
	}
	for _, m := range doc.Modules {
		mod := entity.Module{Code: entity.ModuleCode(m.Code), Name: m.Name, Category: m.Category}
		for _, req := range m.Requires {
			mod.RequiredModules = append(mod.RequiredModules, entity.ModuleCode(req))
		}
		out.Catalog.Modules = append(out.Catalog.Modules, mod)
	}
	for _, p := range doc.Permissions {
		out.Catalog.Permissions = append(out.Catalog.Permissions, entity.Permission{
			Code:   entity.PermissionCode(p.Code),
			Module: entity.ModuleCode(p.Module),
		})
	}

	for _, r := range doc.Roles {
		if r.ID == "" {
			return nil, fmt.Errorf("rol sin id")
		}
		out.Roles = append(out.Roles, entity.Role{ID: r.ID, Name: r.Name, IsSuperAdmin: r.IsSuperAdmin})
		for _, code := range r.Permissions {
			out.RolePermissions = append(out.RolePermissions, entity.RolePermission{
				RoleID:         r.ID,
				PermissionCode: entity.PermissionCode(code),
			})
		}
	}

	for _, o := range doc.Organizations {
		if o.ID == "" {
			return nil, fmt.Errorf("organización sin id")
		}
		status := o.Status
		if status == "" {
			status = entity.OrganizationActive
		}
		out.Organizations = append(out.Organizations, entity.Organization{ID: o.ID, Name: o.Name, Status: status})
		if s := o.Subscription; s != nil {
			out.Subscriptions = append(out.Subscriptions, entity.Subscription{
				OrganizationID: o.ID,
				PlanCode:       s.Plan,
				Status:         s.Status,
				PeriodStart:    s.PeriodStart,
				PeriodEnd:      s.PeriodEnd,
				TrialEnd:       s.TrialEnd,
			})
		}
	}
	for _, m := range doc.Memberships {
		out.Memberships = append(out.Memberships, entity.Membership{
			UserID:         m.UserID,
			OrganizationID: m.OrganizationID,
			RoleID:         m.RoleID,
			IsSuperAdmin:   m.IsSuperAdmin,
			IsActive:       !m.Inactive,
		})
	}
	for _, a := range doc.Activations {
		out.Activations = append(out.Activations, entity.ModuleActivation{
			OrganizationID: a.OrganizationID,
			ModuleCode:     entity.ModuleCode(a.Module),
			Status:         entity.ActivationActive,
			ActivatedBy:    a.ActivatedBy,
		})
	}
	return out, nil
}
