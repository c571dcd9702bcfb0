package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const StockServiceName = "omnipos.stock.v1.StockService"

type DocumentResponse struct {
	Items []model.AdjustmentEntry `json:"items"`
}

type HistoryRequest struct {
	ProductID int64 `json:"product_id"`
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
}

// StockServiceServer is the gRPC surface of the stock mutator. Messages travel with
// the JSON codec registered by the server package.
type StockServiceServer interface {
	AdjustManual(context.Context, *dto.AdjustInput) (*dto.AdjustResult, error)
	RecordSale(context.Context, *dto.Document) (*DocumentResponse, error)
	RecordReturn(context.Context, *dto.Document) (*DocumentResponse, error)
	History(context.Context, *HistoryRequest) (*DocumentResponse, error)
}

type StockGRPCHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockGRPCHandler(uc stock.UseCase, log logger.ZapLogger) *StockGRPCHandler {
	return &StockGRPCHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *StockGRPCHandler) AdjustManual(ctx context.Context, req *dto.AdjustInput) (*dto.AdjustResult, error) {
	res, err := h.uc.AdjustManual(ctx, req)
	if err != nil {
		h.logger.Error("failed to adjust stock", zap.Int64("product_id", req.ProductID), zap.Error(err))
		return nil, server.GRPCError(err)
	}
	return res, nil
}

func (h *StockGRPCHandler) RecordSale(ctx context.Context, req *dto.Document) (*DocumentResponse, error) {
	entries, err := h.uc.RecordSale(ctx, req)
	if err != nil {
		h.logger.Error("failed to record sale", zap.String("reference_id", req.ReferenceID), zap.Error(err))
		return nil, server.GRPCError(err)
	}
	return &DocumentResponse{Items: entries}, nil
}

func (h *StockGRPCHandler) RecordReturn(ctx context.Context, req *dto.Document) (*DocumentResponse, error) {
	entries, err := h.uc.RecordReturn(ctx, req)
	if err != nil {
		h.logger.Error("failed to record return", zap.String("reference_id", req.ReferenceID), zap.Error(err))
		return nil, server.GRPCError(err)
	}
	return &DocumentResponse{Items: entries}, nil
}

func (h *StockGRPCHandler) History(ctx context.Context, req *HistoryRequest) (*DocumentResponse, error) {
	entries, err := h.uc.History(ctx, req.ProductID, req.Page, req.PageSize)
	if err != nil {
		return nil, server.GRPCError(err)
	}
	return &DocumentResponse{Items: entries}, nil
}

// RegisterStockService registers srv on s under StockServiceName.
func RegisterStockService(s grpc.ServiceRegistrar, srv StockServiceServer) {
	s.RegisterService(&stockServiceDesc, srv)
}

var stockServiceDesc = grpc.ServiceDesc{
	ServiceName: StockServiceName,
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AdjustManual", StockServiceServer.AdjustManual),
		unary("RecordSale", StockServiceServer.RecordSale),
		unary("RecordReturn", StockServiceServer.RecordReturn),
		unary("History", StockServiceServer.History),
	},
	Streams: []grpc.StreamDesc{},
}

// unary builds the method descriptor that decodes Req, runs the interceptor chain and
// dispatches to call.
func unary[Req, Resp any](name string, call func(StockServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + StockServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StockServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StockServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
