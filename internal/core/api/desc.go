package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * Service descriptor for querybuilder.v1.QueryEditor.
 *
 * Every method takes and returns a google.protobuf.Struct holding the JSON
 * shapes documented on each handler, so the query tree travels in its
 * native JSON form. The descriptor mirrors proto/querybuilder/v1/query_editor.proto.
 */

const serviceName = "querybuilder.v1.QueryEditor"

// Full method names.
const (
	MethodOpen   = "/" + serviceName + "/Open"
	MethodMutate = "/" + serviceName + "/Mutate"
	MethodSave   = "/" + serviceName + "/Save"
	MethodClose  = "/" + serviceName + "/Close"
	MethodList   = "/" + serviceName + "/List"
)

// QueryEditorServer is the server API for the QueryEditor service.
type QueryEditorServer interface {
	Open(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Mutate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Save(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Close(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(QueryEditorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method unaryMethod, fullMethod string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(QueryEditorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(QueryEditorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// QueryEditorServiceDesc is the grpc.ServiceDesc for the QueryEditor service.
var QueryEditorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueryEditorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Open", Handler: unaryHandler(QueryEditorServer.Open, MethodOpen)},
		{MethodName: "Mutate", Handler: unaryHandler(QueryEditorServer.Mutate, MethodMutate)},
		{MethodName: "Save", Handler: unaryHandler(QueryEditorServer.Save, MethodSave)},
		{MethodName: "Close", Handler: unaryHandler(QueryEditorServer.Close, MethodClose)},
		{MethodName: "List", Handler: unaryHandler(QueryEditorServer.List, MethodList)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "querybuilder/v1/query_editor.proto",
}

// RegisterQueryEditorServer registers srv on s.
func RegisterQueryEditorServer(s grpc.ServiceRegistrar, srv QueryEditorServer) {
	s.RegisterService(&QueryEditorServiceDesc, srv)
}

// QueryEditorClient is the client API for the QueryEditor service.
type QueryEditorClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryEditorClient creates a client over cc.
func NewQueryEditorClient(cc grpc.ClientConnInterface) *QueryEditorClient {
	return &QueryEditorClient{cc: cc}
}

func (c *QueryEditorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QueryEditorClient) Open(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodOpen, in, opts...)
}

func (c *QueryEditorClient) Mutate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodMutate, in, opts...)
}

func (c *QueryEditorClient) Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSave, in, opts...)
}

func (c *QueryEditorClient) Close(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodClose, in, opts...)
}

func (c *QueryEditorClient) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodList, in, opts...)
}
