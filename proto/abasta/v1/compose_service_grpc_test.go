package abastav1

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeClientConn struct {
	invoke func(context.Context, string, any, any, ...grpc.CallOption) error
}

func (f *fakeClientConn) Invoke(ctx context.Context, method string, args any, reply any, opts ...grpc.CallOption) error {
	if f.invoke == nil {
		return errors.New("unexpected Invoke call")
	}
	return f.invoke(ctx, method, args, reply, opts...)
}

func (f *fakeClientConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("not implemented")
}

type grpcTestComposeService struct {
	UnimplementedComposeServiceServer
}

func (s *grpcTestComposeService) GetDraft(_ context.Context, req *DraftRequest) (*DraftResponse, error) {
	return &DraftResponse{Draft: &Draft{ID: req.DraftID}}, nil
}

func (s *grpcTestComposeService) AddProduct(_ context.Context, req *ItemRequest) (*AddProductResponse, error) {
	return &AddProductResponse{Draft: &Draft{ID: req.DraftID}, Added: req.ProductID != ""}, nil
}

func TestComposeServiceClientMethods(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		methods := map[string]int{}
		conn := &fakeClientConn{
			invoke: func(_ context.Context, method string, _ any, reply any, opts ...grpc.CallOption) error {
				methods[method]++
				subtype := ""
				for _, opt := range opts {
					if o, ok := opt.(grpc.ContentSubtypeCallOption); ok {
						subtype = o.ContentSubtype
					}
				}
				if subtype != CodecName {
					t.Fatalf("expected content subtype %q for %s, got %q", CodecName, method, subtype)
				}
				if out, ok := reply.(*DraftResponse); ok {
					out.Draft = &Draft{ID: "draft-1"}
				}
				return nil
			},
		}

		client := NewComposeServiceClient(conn)
		ctx := context.Background()
		calls := map[string]func() error{
			ComposeService_Login_FullMethodName:     func() error { _, err := client.Login(ctx, &LoginRequest{}); return err },
			ComposeService_Logout_FullMethodName:    func() error { _, err := client.Logout(ctx, &LogoutRequest{}); return err },
			ComposeService_OpenDraft_FullMethodName: func() error { _, err := client.OpenDraft(ctx, &OpenDraftRequest{}); return err },
			ComposeService_GetDraft_FullMethodName: func() error {
				resp, err := client.GetDraft(ctx, &DraftRequest{DraftID: "draft-1"})
				if err == nil && resp.Draft.ID != "draft-1" {
					return errors.New("reply was not filled")
				}
				return err
			},
			ComposeService_ListDrafts_FullMethodName:  func() error { _, err := client.ListDrafts(ctx, &ListDraftsRequest{}); return err },
			ComposeService_CloseDraft_FullMethodName:  func() error { _, err := client.CloseDraft(ctx, &DraftRequest{}); return err },
			ComposeService_GetTimeline_FullMethodName: func() error { _, err := client.GetTimeline(ctx, &DraftRequest{}); return err },
			ComposeService_SelectSupplier_FullMethodName: func() error {
				_, err := client.SelectSupplier(ctx, &SelectSupplierRequest{})
				return err
			},
			ComposeService_ConfirmSupplierChange_FullMethodName: func() error {
				_, err := client.ConfirmSupplierChange(ctx, &DraftRequest{})
				return err
			},
			ComposeService_CancelSupplierChange_FullMethodName: func() error {
				_, err := client.CancelSupplierChange(ctx, &DraftRequest{})
				return err
			},
			ComposeService_SearchSuppliers_FullMethodName: func() error {
				_, err := client.SearchSuppliers(ctx, &SearchSuppliersRequest{})
				return err
			},
			ComposeService_BrowseProducts_FullMethodName: func() error {
				_, err := client.BrowseProducts(ctx, &BrowseProductsRequest{})
				return err
			},
			ComposeService_GetProducts_FullMethodName:   func() error { _, err := client.GetProducts(ctx, &DraftRequest{}); return err },
			ComposeService_AddProduct_FullMethodName:    func() error { _, err := client.AddProduct(ctx, &ItemRequest{}); return err },
			ComposeService_UpdateItem_FullMethodName:    func() error { _, err := client.UpdateItem(ctx, &UpdateItemRequest{}); return err },
			ComposeService_IncrementItem_FullMethodName: func() error { _, err := client.IncrementItem(ctx, &ItemRequest{}); return err },
			ComposeService_DecrementItem_FullMethodName: func() error { _, err := client.DecrementItem(ctx, &ItemRequest{}); return err },
			ComposeService_RemoveItem_FullMethodName:    func() error { _, err := client.RemoveItem(ctx, &ItemRequest{}); return err },
			ComposeService_SetNotes_FullMethodName:      func() error { _, err := client.SetNotes(ctx, &SetNotesRequest{}); return err },
			ComposeService_SetName_FullMethodName:       func() error { _, err := client.SetName(ctx, &SetNameRequest{}); return err },
			ComposeService_SaveDraft_FullMethodName:     func() error { _, err := client.SaveDraft(ctx, &DraftRequest{}); return err },
			ComposeService_OpenDispatch_FullMethodName:  func() error { _, err := client.OpenDispatch(ctx, &DraftRequest{}); return err },
			ComposeService_SelectChannel_FullMethodName: func() error {
				_, err := client.SelectChannel(ctx, &SelectChannelRequest{})
				return err
			},
			ComposeService_SendOrder_FullMethodName: func() error { _, err := client.SendOrder(ctx, &DraftRequest{}); return err },
			ComposeService_GetWhatsAppLink_FullMethodName: func() error {
				_, err := client.GetWhatsAppLink(ctx, &DraftRequest{})
				return err
			},
		}
		for method, call := range calls {
			if err := call(); err != nil {
				t.Fatalf("%s failed: %v", method, err)
			}
		}
		if len(calls) != len(ComposeService_ServiceDesc.Methods) {
			t.Fatalf("client covers %d methods, descriptor has %d", len(calls), len(ComposeService_ServiceDesc.Methods))
		}
		for method := range calls {
			if methods[method] != 1 {
				t.Fatalf("expected method %s called exactly once, got %d", method, methods[method])
			}
		}
	})

	t.Run("error", func(t *testing.T) {
		conn := &fakeClientConn{
			invoke: func(context.Context, string, any, any, ...grpc.CallOption) error {
				return status.Error(codes.Internal, "boom")
			},
		}
		client := NewComposeServiceClient(conn)
		resp, err := client.SaveDraft(context.Background(), &DraftRequest{DraftID: "draft-1"})
		if status.Code(err) != codes.Internal {
			t.Fatalf("expected Internal error, got %v", err)
		}
		if resp != nil {
			t.Fatalf("expected nil response on error, got %+v", resp)
		}
	})
}

func TestUnimplementedComposeServiceServer(t *testing.T) {
	var srv UnimplementedComposeServiceServer
	ctx := context.Background()

	for name, call := range map[string]func() error{
		"Login":     func() error { _, err := srv.Login(ctx, &LoginRequest{}); return err },
		"OpenDraft": func() error { _, err := srv.OpenDraft(ctx, &OpenDraftRequest{}); return err },
		"SaveDraft": func() error { _, err := srv.SaveDraft(ctx, &DraftRequest{}); return err },
		"SendOrder": func() error { _, err := srv.SendOrder(ctx, &DraftRequest{}); return err },
	} {
		if err := call(); status.Code(err) != codes.Unimplemented {
			t.Fatalf("%s expected Unimplemented error, got %v", name, err)
		}
	}

	srv.mustEmbedUnimplementedComposeServiceServer()
}

func TestServiceDescHandlers(t *testing.T) {
	srv := &grpcTestComposeService{}
	ctx := context.Background()

	handlers := map[string]grpc.MethodHandler{}
	for _, desc := range ComposeService_ServiceDesc.Methods {
		handlers[desc.MethodName] = desc.Handler
	}

	t.Run("decode error", func(t *testing.T) {
		_, err := handlers["GetDraft"](srv, ctx, func(any) error { return errors.New("decode failed") }, nil)
		if err == nil {
			t.Fatalf("expected decode error")
		}
	})

	t.Run("without interceptor", func(t *testing.T) {
		resp, err := handlers["GetDraft"](srv, ctx, func(v any) error {
			v.(*DraftRequest).DraftID = "draft-7"
			return nil
		}, nil)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}
		if got := resp.(*DraftResponse).Draft.ID; got != "draft-7" {
			t.Fatalf("unexpected draft id %q", got)
		}
	})

	t.Run("with interceptor", func(t *testing.T) {
		interceptorCalled := false
		resp, err := handlers["AddProduct"](srv, ctx, func(v any) error {
			req := v.(*ItemRequest)
			req.DraftID = "draft-1"
			req.ProductID = "p-1"
			return nil
		}, func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			interceptorCalled = true
			if info.FullMethod != ComposeService_AddProduct_FullMethodName {
				t.Fatalf("unexpected full method: %s", info.FullMethod)
			}
			return handler(ctx, req)
		})
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}
		if !interceptorCalled {
			t.Fatalf("interceptor was not called")
		}
		if !resp.(*AddProductResponse).Added {
			t.Fatalf("expected product to be added")
		}
	})

	t.Run("unimplemented method", func(t *testing.T) {
		_, err := handlers["SendOrder"](srv, ctx, func(any) error { return nil }, nil)
		if status.Code(err) != codes.Unimplemented {
			t.Fatalf("expected Unimplemented, got %v", err)
		}
	})
}

func TestRegisterAndServiceDescriptor(t *testing.T) {
	g := grpc.NewServer()
	RegisterComposeServiceServer(g, &grpcTestComposeService{})

	if got, want := ComposeService_ServiceDesc.ServiceName, "abasta.v1.ComposeService"; got != want {
		t.Fatalf("unexpected service name: got %s want %s", got, want)
	}
	if len(ComposeService_ServiceDesc.Methods) != 25 {
		t.Fatalf("expected 25 method descriptors, got %d", len(ComposeService_ServiceDesc.Methods))
	}
	if _, ok := g.GetServiceInfo()[ServiceName]; !ok {
		t.Fatalf("service is not registered")
	}
}
