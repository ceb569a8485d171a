package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/elC0mpa/ami-rotator/cmd/mcp/response"
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service"
	"github.com/elC0mpa/ami-rotator/service/backup"
	"github.com/elC0mpa/ami-rotator/service/expiry"
	"github.com/elC0mpa/ami-rotator/service/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators shared by every tool handler
type Deps struct {
	Config   model.Config
	Clock    clock.Clock
	Logger   *logrus.Entry
	Identity service.IdentityService // optional
	Compute  service.ComputeFactory
}

// RegisterRotationTools registers the read-only rotation tools with the MCP server
func RegisterRotationTools(s *server.MCPServer, deps Deps) {
	// Account info
	s.AddTool(
		mcp.NewTool("rotation_get_account_info",
			mcp.WithDescription("Get the AWS account the image rotation runs against"),
		),
		makeAccountInfoHandler(deps),
	)

	// Backup candidates
	s.AddTool(
		mcp.NewTool("rotation_list_backup_candidates",
			mcp.WithDescription("List EC2 instances carrying a backup marker tag, with the image name and DeleteAfter date the next run would use"),
			mcp.WithString("region", mcp.Description("Region to inspect; all configured regions when omitted")),
		),
		makeBackupCandidatesHandler(deps),
	)

	// Managed images
	s.AddTool(
		mcp.NewTool("rotation_list_managed_images",
			mcp.WithDescription("List AMIs managed by the rotation with their DeleteAfter date and whether the next run would delete them"),
			mcp.WithString("region", mcp.Description("Region to inspect; all configured regions when omitted")),
		),
		makeManagedImagesHandler(deps),
	)

	// Dry run
	s.AddTool(
		mcp.NewTool("rotation_dry_run",
			mcp.WithDescription("Run a full backup and expiry cycle with DryRun set on every mutating call and return the per-region report"),
			mcp.WithString("region", mcp.Description("Region to run; all configured regions when omitted")),
		),
		makeDryRunHandler(deps),
	)
}

func makeAccountInfoHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Identity == nil {
			return mcp.NewToolResultError("AWS identity is not configured"), nil
		}

		info, err := deps.Identity.GetAccountInfo(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get account info: %v", err)), nil
		}

		return jsonResult(response.ConvertAccountInfo(info))
	}
}

func makeBackupCandidatesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		now := deps.Clock.Now()
		var listings []response.RegionListing[response.BackupCandidate]

		for _, region := range regionsFor(request, deps.Config) {
			listing := response.RegionListing[response.BackupCandidate]{Region: region, Items: []response.BackupCandidate{}}

			instances, err := listInstances(ctx, deps, region)
			switch {
			case errors.Is(err, model.ErrRegionNotEnabled):
				listing.NotEnabled = true
			case err != nil:
				listing.Error = err.Error()
			}

			for _, instance := range instances {
				if instance.State == model.InstanceStateTerminated {
					continue
				}
				name := backup.DisplayName(instance)
				days := backup.RetentionDays(instance, deps.Config.DefaultRetentionDays)
				listing.Items = append(listing.Items, response.BackupCandidate{
					Region:        region,
					InstanceID:    instance.ID,
					State:         instance.State,
					DisplayName:   name,
					RetentionDays: days,
					ImageName:     backup.ImageName(name, now),
					DeleteAfter:   backup.DeleteAfter(now, days),
				})
			}

			listings = append(listings, listing)
		}

		return jsonResult(listings)
	}
}

func makeManagedImagesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		today := expiry.Today(deps.Clock.Now())
		var listings []response.RegionListing[response.ManagedImage]

		for _, region := range regionsFor(request, deps.Config) {
			listing := response.RegionListing[response.ManagedImage]{Region: region, Items: []response.ManagedImage{}}

			images, err := listImages(ctx, deps, region)
			switch {
			case errors.Is(err, model.ErrRegionNotEnabled):
				listing.NotEnabled = true
			case err != nil:
				listing.Error = err.Error()
			}

			for _, image := range images {
				item := response.ManagedImage{
					Region:      region,
					ImageID:     image.ID,
					Name:        image.Name,
					InstanceID:  image.Tags[model.TagOriginalInstanceID],
					SnapshotIDs: append([]string{}, image.SnapshotIDs...),
				}

				deleteAfter, ok := image.Tags[model.TagDeleteAfter]
				item.DeleteAfter = deleteAfter
				switch expired, err := expiry.IsExpired(deleteAfter, today); {
				case !ok:
					item.Status = "no_delete_after"
				case err != nil:
					item.Status = "invalid_delete_after"
				case expired:
					item.Status = "expired"
				default:
					item.Status = "retained"
				}

				listing.Items = append(listing.Items, item)
			}

			listings = append(listings, listing)
		}

		return jsonResult(listings)
	}
}

func makeDryRunHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg := deps.Config
		cfg.DryRun = true
		cfg.Regions = regionsFor(request, deps.Config)

		orch := orchestrator.NewService(cfg, deps.Clock, deps.Logger.WithField("dryRun", true), deps.Identity, deps.Compute)
		report, err := orch.Orchestrate(ctx)
		if report == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Dry run failed: %v", err)), nil
		}

		return jsonResult(response.ConvertRunReport(report, err))
	}
}

func listInstances(ctx context.Context, deps Deps, region string) ([]model.Instance, error) {
	compute, err := deps.Compute(ctx, region)
	if err != nil {
		return nil, err
	}
	return compute.ListInstancesByTagKeys(ctx, deps.Config.MarkerTags)
}

func listImages(ctx context.Context, deps Deps, region string) ([]model.Image, error) {
	compute, err := deps.Compute(ctx, region)
	if err != nil {
		return nil, err
	}
	return compute.ListOwnedImagesByTagKey(ctx, deps.Config.ManagedTagKey)
}

func regionsFor(request mcp.CallToolRequest, cfg model.Config) []string {
	if region := request.GetString("region", ""); region != "" {
		return []string{region}
	}
	return append([]string(nil), cfg.Regions...)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
