package nbi

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/radiomobile/model"
)

// Client calls radiomobile.v1.ReportService.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// ListReports returns the catalog entries sorted by name.
func (c *Client) ListReports(ctx context.Context, opts ...grpc.CallOption) ([]ReportInfo, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, MethodListReports, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	infos := make([]ReportInfo, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		info, err := infoFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetReport fetches a stored report by catalog name or entry ID.
func (c *Client) GetReport(ctx context.Context, name string, opts ...grpc.CallOption) (*model.Report, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, MethodGetReport, wrapperspb.String(name), out, opts...); err != nil {
		return nil, err
	}
	return decodeReport(out.GetValue())
}

// ParseReport has the server parse raw report bytes without storing them.
func (c *Client) ParseReport(ctx context.Context, data []byte, opts ...grpc.CallOption) (*model.Report, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, MethodParseReport, wrapperspb.Bytes(data), out, opts...); err != nil {
		return nil, err
	}
	return decodeReport(out.GetValue())
}

// MembersWithRole lists the members of a net of a stored report that hold
// any of roles. With no roles every member is returned.
func (c *Client) MembersWithRole(ctx context.Context, report, net string, roles []model.Role, opts ...grpc.CallOption) ([]string, error) {
	in, err := membersQuery{Report: report, Net: net, Roles: roles}.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, MethodGetMembersWithRole, in, out, opts...); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

func decodeReport(data []byte) (*model.Report, error) {
	r := model.NewReport()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
