package abastav1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName: полное имя gRPC сервиса.
const ServiceName = "abasta.v1.ComposeService"

const (
	ComposeService_Login_FullMethodName                 = "/abasta.v1.ComposeService/Login"
	ComposeService_Logout_FullMethodName                = "/abasta.v1.ComposeService/Logout"
	ComposeService_OpenDraft_FullMethodName             = "/abasta.v1.ComposeService/OpenDraft"
	ComposeService_GetDraft_FullMethodName              = "/abasta.v1.ComposeService/GetDraft"
	ComposeService_ListDrafts_FullMethodName            = "/abasta.v1.ComposeService/ListDrafts"
	ComposeService_CloseDraft_FullMethodName            = "/abasta.v1.ComposeService/CloseDraft"
	ComposeService_GetTimeline_FullMethodName           = "/abasta.v1.ComposeService/GetTimeline"
	ComposeService_SelectSupplier_FullMethodName        = "/abasta.v1.ComposeService/SelectSupplier"
	ComposeService_ConfirmSupplierChange_FullMethodName = "/abasta.v1.ComposeService/ConfirmSupplierChange"
	ComposeService_CancelSupplierChange_FullMethodName  = "/abasta.v1.ComposeService/CancelSupplierChange"
	ComposeService_SearchSuppliers_FullMethodName       = "/abasta.v1.ComposeService/SearchSuppliers"
	ComposeService_BrowseProducts_FullMethodName        = "/abasta.v1.ComposeService/BrowseProducts"
	ComposeService_GetProducts_FullMethodName           = "/abasta.v1.ComposeService/GetProducts"
	ComposeService_AddProduct_FullMethodName            = "/abasta.v1.ComposeService/AddProduct"
	ComposeService_UpdateItem_FullMethodName            = "/abasta.v1.ComposeService/UpdateItem"
	ComposeService_IncrementItem_FullMethodName         = "/abasta.v1.ComposeService/IncrementItem"
	ComposeService_DecrementItem_FullMethodName         = "/abasta.v1.ComposeService/DecrementItem"
	ComposeService_RemoveItem_FullMethodName            = "/abasta.v1.ComposeService/RemoveItem"
	ComposeService_SetNotes_FullMethodName              = "/abasta.v1.ComposeService/SetNotes"
	ComposeService_SetName_FullMethodName               = "/abasta.v1.ComposeService/SetName"
	ComposeService_SaveDraft_FullMethodName             = "/abasta.v1.ComposeService/SaveDraft"
	ComposeService_OpenDispatch_FullMethodName          = "/abasta.v1.ComposeService/OpenDispatch"
	ComposeService_SelectChannel_FullMethodName         = "/abasta.v1.ComposeService/SelectChannel"
	ComposeService_SendOrder_FullMethodName             = "/abasta.v1.ComposeService/SendOrder"
	ComposeService_GetWhatsAppLink_FullMethodName       = "/abasta.v1.ComposeService/GetWhatsAppLink"
)

// ComposeServiceClient: клиент ComposeService. Все вызовы идут с content-subtype json.
type ComposeServiceClient interface {
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error)
	OpenDraft(ctx context.Context, in *OpenDraftRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	GetDraft(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	ListDrafts(ctx context.Context, in *ListDraftsRequest, opts ...grpc.CallOption) (*ListDraftsResponse, error)
	CloseDraft(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*CloseDraftResponse, error)
	GetTimeline(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*TimelineResponse, error)
	SelectSupplier(ctx context.Context, in *SelectSupplierRequest, opts ...grpc.CallOption) (*SupplierChangeResponse, error)
	ConfirmSupplierChange(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*SupplierChangeResponse, error)
	CancelSupplierChange(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	SearchSuppliers(ctx context.Context, in *SearchSuppliersRequest, opts ...grpc.CallOption) (*SupplierPage, error)
	BrowseProducts(ctx context.Context, in *BrowseProductsRequest, opts ...grpc.CallOption) (*BrowseProductsResponse, error)
	GetProducts(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*BrowseProductsResponse, error)
	AddProduct(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*AddProductResponse, error)
	UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	IncrementItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	DecrementItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	RemoveItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	SetNotes(ctx context.Context, in *SetNotesRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	SetName(ctx context.Context, in *SetNameRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	SaveDraft(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*SaveDraftResponse, error)
	OpenDispatch(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*OpenDispatchResponse, error)
	SelectChannel(ctx context.Context, in *SelectChannelRequest, opts ...grpc.CallOption) (*DraftResponse, error)
	SendOrder(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*SendOrderResponse, error)
	GetWhatsAppLink(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*WhatsAppLinkResponse, error)
}

type composeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewComposeServiceClient создаёт клиент поверх соединения.
func NewComposeServiceClient(cc grpc.ClientConnInterface) ComposeServiceClient {
	return &composeServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *composeServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, ComposeService_Login_FullMethodName, in, opts)
}

func (c *composeServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, ComposeService_Logout_FullMethodName, in, opts)
}

func (c *composeServiceClient) OpenDraft(ctx context.Context, in *OpenDraftRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_OpenDraft_FullMethodName, in, opts)
}

func (c *composeServiceClient) GetDraft(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_GetDraft_FullMethodName, in, opts)
}

func (c *composeServiceClient) ListDrafts(ctx context.Context, in *ListDraftsRequest, opts ...grpc.CallOption) (*ListDraftsResponse, error) {
	return invoke[ListDraftsResponse](ctx, c.cc, ComposeService_ListDrafts_FullMethodName, in, opts)
}

func (c *composeServiceClient) CloseDraft(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*CloseDraftResponse, error) {
	return invoke[CloseDraftResponse](ctx, c.cc, ComposeService_CloseDraft_FullMethodName, in, opts)
}

func (c *composeServiceClient) GetTimeline(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*TimelineResponse, error) {
	return invoke[TimelineResponse](ctx, c.cc, ComposeService_GetTimeline_FullMethodName, in, opts)
}

func (c *composeServiceClient) SelectSupplier(ctx context.Context, in *SelectSupplierRequest, opts ...grpc.CallOption) (*SupplierChangeResponse, error) {
	return invoke[SupplierChangeResponse](ctx, c.cc, ComposeService_SelectSupplier_FullMethodName, in, opts)
}

func (c *composeServiceClient) ConfirmSupplierChange(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*SupplierChangeResponse, error) {
	return invoke[SupplierChangeResponse](ctx, c.cc, ComposeService_ConfirmSupplierChange_FullMethodName, in, opts)
}

func (c *composeServiceClient) CancelSupplierChange(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_CancelSupplierChange_FullMethodName, in, opts)
}

func (c *composeServiceClient) SearchSuppliers(ctx context.Context, in *SearchSuppliersRequest, opts ...grpc.CallOption) (*SupplierPage, error) {
	return invoke[SupplierPage](ctx, c.cc, ComposeService_SearchSuppliers_FullMethodName, in, opts)
}

func (c *composeServiceClient) BrowseProducts(ctx context.Context, in *BrowseProductsRequest, opts ...grpc.CallOption) (*BrowseProductsResponse, error) {
	return invoke[BrowseProductsResponse](ctx, c.cc, ComposeService_BrowseProducts_FullMethodName, in, opts)
}

func (c *composeServiceClient) GetProducts(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*BrowseProductsResponse, error) {
	return invoke[BrowseProductsResponse](ctx, c.cc, ComposeService_GetProducts_FullMethodName, in, opts)
}

func (c *composeServiceClient) AddProduct(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*AddProductResponse, error) {
	return invoke[AddProductResponse](ctx, c.cc, ComposeService_AddProduct_FullMethodName, in, opts)
}

func (c *composeServiceClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_UpdateItem_FullMethodName, in, opts)
}

func (c *composeServiceClient) IncrementItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_IncrementItem_FullMethodName, in, opts)
}

func (c *composeServiceClient) DecrementItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_DecrementItem_FullMethodName, in, opts)
}

func (c *composeServiceClient) RemoveItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_RemoveItem_FullMethodName, in, opts)
}

func (c *composeServiceClient) SetNotes(ctx context.Context, in *SetNotesRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_SetNotes_FullMethodName, in, opts)
}

func (c *composeServiceClient) SetName(ctx context.Context, in *SetNameRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_SetName_FullMethodName, in, opts)
}

func (c *composeServiceClient) SaveDraft(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*SaveDraftResponse, error) {
	return invoke[SaveDraftResponse](ctx, c.cc, ComposeService_SaveDraft_FullMethodName, in, opts)
}

func (c *composeServiceClient) OpenDispatch(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*OpenDispatchResponse, error) {
	return invoke[OpenDispatchResponse](ctx, c.cc, ComposeService_OpenDispatch_FullMethodName, in, opts)
}

func (c *composeServiceClient) SelectChannel(ctx context.Context, in *SelectChannelRequest, opts ...grpc.CallOption) (*DraftResponse, error) {
	return invoke[DraftResponse](ctx, c.cc, ComposeService_SelectChannel_FullMethodName, in, opts)
}

func (c *composeServiceClient) SendOrder(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*SendOrderResponse, error) {
	return invoke[SendOrderResponse](ctx, c.cc, ComposeService_SendOrder_FullMethodName, in, opts)
}

func (c *composeServiceClient) GetWhatsAppLink(ctx context.Context, in *DraftRequest, opts ...grpc.CallOption) (*WhatsAppLinkResponse, error) {
	return invoke[WhatsAppLinkResponse](ctx, c.cc, ComposeService_GetWhatsAppLink_FullMethodName, in, opts)
}

// ComposeServiceServer: серверная часть ComposeService.
// Реализации должны встраивать UnimplementedComposeServiceServer.
type ComposeServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	OpenDraft(context.Context, *OpenDraftRequest) (*DraftResponse, error)
	GetDraft(context.Context, *DraftRequest) (*DraftResponse, error)
	ListDrafts(context.Context, *ListDraftsRequest) (*ListDraftsResponse, error)
	CloseDraft(context.Context, *DraftRequest) (*CloseDraftResponse, error)
	GetTimeline(context.Context, *DraftRequest) (*TimelineResponse, error)
	SelectSupplier(context.Context, *SelectSupplierRequest) (*SupplierChangeResponse, error)
	ConfirmSupplierChange(context.Context, *DraftRequest) (*SupplierChangeResponse, error)
	CancelSupplierChange(context.Context, *DraftRequest) (*DraftResponse, error)
	SearchSuppliers(context.Context, *SearchSuppliersRequest) (*SupplierPage, error)
	BrowseProducts(context.Context, *BrowseProductsRequest) (*BrowseProductsResponse, error)
	GetProducts(context.Context, *DraftRequest) (*BrowseProductsResponse, error)
	AddProduct(context.Context, *ItemRequest) (*AddProductResponse, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*DraftResponse, error)
	IncrementItem(context.Context, *ItemRequest) (*DraftResponse, error)
	DecrementItem(context.Context, *ItemRequest) (*DraftResponse, error)
	RemoveItem(context.Context, *ItemRequest) (*DraftResponse, error)
	SetNotes(context.Context, *SetNotesRequest) (*DraftResponse, error)
	SetName(context.Context, *SetNameRequest) (*DraftResponse, error)
	SaveDraft(context.Context, *DraftRequest) (*SaveDraftResponse, error)
	OpenDispatch(context.Context, *DraftRequest) (*OpenDispatchResponse, error)
	SelectChannel(context.Context, *SelectChannelRequest) (*DraftResponse, error)
	SendOrder(context.Context, *DraftRequest) (*SendOrderResponse, error)
	GetWhatsAppLink(context.Context, *DraftRequest) (*WhatsAppLinkResponse, error)
	mustEmbedUnimplementedComposeServiceServer()
}

// UnimplementedComposeServiceServer отвечает Unimplemented на все методы.
type UnimplementedComposeServiceServer struct{}

func (UnimplementedComposeServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedComposeServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedComposeServiceServer) OpenDraft(context.Context, *OpenDraftRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenDraft not implemented")
}
func (UnimplementedComposeServiceServer) GetDraft(context.Context, *DraftRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDraft not implemented")
}
func (UnimplementedComposeServiceServer) ListDrafts(context.Context, *ListDraftsRequest) (*ListDraftsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDrafts not implemented")
}
func (UnimplementedComposeServiceServer) CloseDraft(context.Context, *DraftRequest) (*CloseDraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CloseDraft not implemented")
}
func (UnimplementedComposeServiceServer) GetTimeline(context.Context, *DraftRequest) (*TimelineResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTimeline not implemented")
}
func (UnimplementedComposeServiceServer) SelectSupplier(context.Context, *SelectSupplierRequest) (*SupplierChangeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SelectSupplier not implemented")
}
func (UnimplementedComposeServiceServer) ConfirmSupplierChange(context.Context, *DraftRequest) (*SupplierChangeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmSupplierChange not implemented")
}
func (UnimplementedComposeServiceServer) CancelSupplierChange(context.Context, *DraftRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelSupplierChange not implemented")
}
func (UnimplementedComposeServiceServer) SearchSuppliers(context.Context, *SearchSuppliersRequest) (*SupplierPage, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchSuppliers not implemented")
}
func (UnimplementedComposeServiceServer) BrowseProducts(context.Context, *BrowseProductsRequest) (*BrowseProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BrowseProducts not implemented")
}
func (UnimplementedComposeServiceServer) GetProducts(context.Context, *DraftRequest) (*BrowseProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProducts not implemented")
}
func (UnimplementedComposeServiceServer) AddProduct(context.Context, *ItemRequest) (*AddProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddProduct not implemented")
}
func (UnimplementedComposeServiceServer) UpdateItem(context.Context, *UpdateItemRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateItem not implemented")
}
func (UnimplementedComposeServiceServer) IncrementItem(context.Context, *ItemRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method IncrementItem not implemented")
}
func (UnimplementedComposeServiceServer) DecrementItem(context.Context, *ItemRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DecrementItem not implemented")
}
func (UnimplementedComposeServiceServer) RemoveItem(context.Context, *ItemRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveItem not implemented")
}
func (UnimplementedComposeServiceServer) SetNotes(context.Context, *SetNotesRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetNotes not implemented")
}
func (UnimplementedComposeServiceServer) SetName(context.Context, *SetNameRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetName not implemented")
}
func (UnimplementedComposeServiceServer) SaveDraft(context.Context, *DraftRequest) (*SaveDraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveDraft not implemented")
}
func (UnimplementedComposeServiceServer) OpenDispatch(context.Context, *DraftRequest) (*OpenDispatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenDispatch not implemented")
}
func (UnimplementedComposeServiceServer) SelectChannel(context.Context, *SelectChannelRequest) (*DraftResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SelectChannel not implemented")
}
func (UnimplementedComposeServiceServer) SendOrder(context.Context, *DraftRequest) (*SendOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendOrder not implemented")
}
func (UnimplementedComposeServiceServer) GetWhatsAppLink(context.Context, *DraftRequest) (*WhatsAppLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetWhatsAppLink not implemented")
}
func (UnimplementedComposeServiceServer) mustEmbedUnimplementedComposeServiceServer() {}

// RegisterComposeServiceServer регистрирует реализацию на сервере.
func RegisterComposeServiceServer(s grpc.ServiceRegistrar, srv ComposeServiceServer) {
	s.RegisterService(&ComposeService_ServiceDesc, srv)
}

// unaryHandler строит grpc.MethodHandler для метода сервера с учётом interceptor.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ComposeServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ComposeServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ComposeServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ComposeService_ServiceDesc: описание сервиса для grpc.ServiceRegistrar.
var ComposeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ComposeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(ComposeService_Login_FullMethodName, ComposeServiceServer.Login)},
		{MethodName: "Logout", Handler: unaryHandler(ComposeService_Logout_FullMethodName, ComposeServiceServer.Logout)},
		{MethodName: "OpenDraft", Handler: unaryHandler(ComposeService_OpenDraft_FullMethodName, ComposeServiceServer.OpenDraft)},
		{MethodName: "GetDraft", Handler: unaryHandler(ComposeService_GetDraft_FullMethodName, ComposeServiceServer.GetDraft)},
		{MethodName: "ListDrafts", Handler: unaryHandler(ComposeService_ListDrafts_FullMethodName, ComposeServiceServer.ListDrafts)},
		{MethodName: "CloseDraft", Handler: unaryHandler(ComposeService_CloseDraft_FullMethodName, ComposeServiceServer.CloseDraft)},
		{MethodName: "GetTimeline", Handler: unaryHandler(ComposeService_GetTimeline_FullMethodName, ComposeServiceServer.GetTimeline)},
		{MethodName: "SelectSupplier", Handler: unaryHandler(ComposeService_SelectSupplier_FullMethodName, ComposeServiceServer.SelectSupplier)},
		{MethodName: "ConfirmSupplierChange", Handler: unaryHandler(ComposeService_ConfirmSupplierChange_FullMethodName, ComposeServiceServer.ConfirmSupplierChange)},
		{MethodName: "CancelSupplierChange", Handler: unaryHandler(ComposeService_CancelSupplierChange_FullMethodName, ComposeServiceServer.CancelSupplierChange)},
		{MethodName: "SearchSuppliers", Handler: unaryHandler(ComposeService_SearchSuppliers_FullMethodName, ComposeServiceServer.SearchSuppliers)},
		{MethodName: "BrowseProducts", Handler: unaryHandler(ComposeService_BrowseProducts_FullMethodName, ComposeServiceServer.BrowseProducts)},
		{MethodName: "GetProducts", Handler: unaryHandler(ComposeService_GetProducts_FullMethodName, ComposeServiceServer.GetProducts)},
		{MethodName: "AddProduct", Handler: unaryHandler(ComposeService_AddProduct_FullMethodName, ComposeServiceServer.AddProduct)},
		{MethodName: "UpdateItem", Handler: unaryHandler(ComposeService_UpdateItem_FullMethodName, ComposeServiceServer.UpdateItem)},
		{MethodName: "IncrementItem", Handler: unaryHandler(ComposeService_IncrementItem_FullMethodName, ComposeServiceServer.IncrementItem)},
		{MethodName: "DecrementItem", Handler: unaryHandler(ComposeService_DecrementItem_FullMethodName, ComposeServiceServer.DecrementItem)},
		{MethodName: "RemoveItem", Handler: unaryHandler(ComposeService_RemoveItem_FullMethodName, ComposeServiceServer.RemoveItem)},
		{MethodName: "SetNotes", Handler: unaryHandler(ComposeService_SetNotes_FullMethodName, ComposeServiceServer.SetNotes)},
		{MethodName: "SetName", Handler: unaryHandler(ComposeService_SetName_FullMethodName, ComposeServiceServer.SetName)},
		{MethodName: "SaveDraft", Handler: unaryHandler(ComposeService_SaveDraft_FullMethodName, ComposeServiceServer.SaveDraft)},
		{MethodName: "OpenDispatch", Handler: unaryHandler(ComposeService_OpenDispatch_FullMethodName, ComposeServiceServer.OpenDispatch)},
		{MethodName: "SelectChannel", Handler: unaryHandler(ComposeService_SelectChannel_FullMethodName, ComposeServiceServer.SelectChannel)},
		{MethodName: "SendOrder", Handler: unaryHandler(ComposeService_SendOrder_FullMethodName, ComposeServiceServer.SendOrder)},
		{MethodName: "GetWhatsAppLink", Handler: unaryHandler(ComposeService_GetWhatsAppLink_FullMethodName, ComposeServiceServer.GetWhatsAppLink)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "abasta/v1/compose_service",
}
