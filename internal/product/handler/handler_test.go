package handler

import (
	"context"
	"net"
	"testing"

	pb "github.com/fekuna/pricewatch-service/api/pricewatch/v1"
	"github.com/fekuna/pricewatch-service/internal/auth"
	duprepo "github.com/fekuna/pricewatch-service/internal/duplicate/repository"
	dupuc "github.com/fekuna/pricewatch-service/internal/duplicate/usecase"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/product/dto"
	"github.com/fekuna/pricewatch-service/internal/product/repository"
	"github.com/fekuna/pricewatch-service/internal/product/usecase"
	"github.com/fekuna/pricewatch-service/internal/testutil"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type capturePublisher struct {
	events []usecase.AdminEvent
}

func (p *capturePublisher) PublishJSON(_ context.Context, _ string, v any) error {
	p.events = append(p.events, v.(usecase.AdminEvent))
	return nil
}

func newAdminClient(t *testing.T) (pb.AdminServiceClient, *sqlx.DB, *capturePublisher) {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &capturePublisher{}
	uc := usecase.NewAdminUseCase(repository.NewPGRepository(db), logger.NewNop(), usecase.WithPublisher(pub))
	matcher := dupuc.NewMatcherUseCase(duprepo.NewPGRepository(db), dupuc.Config{Threshold: 0.3}, logger.NewNop())

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(auth.ContextInterceptor()))
	pb.RegisterAdminServiceServer(s, NewAdminHandler(uc, matcher, logger.NewNop()))
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return pb.NewAdminServiceClient(conn), db, pub
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMergeProducts(t *testing.T) {
	client, db, pub := newAdminClient(t)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "a"})
	testutil.InsertProduct(t, db, model.Product{ID: 2, Name: "b"})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 2, ShopID: 1})

	ctx := metadata.AppendToOutgoingContext(context.Background(), auth.ActorHeader, "ana")
	out, err := client.MergeProducts(ctx, mustStruct(t, map[string]interface{}{"keep_id": 1, "drop_id": 2}))
	if err != nil {
		t.Fatal(err)
	}
	var res dto.MergeResult
	if err := pb.Decode(out, &res); err != nil {
		t.Fatal(err)
	}
	if res.MovedRecords != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.events) != 1 || pub.events[0].Actor != "ana" {
		t.Fatalf("actor not propagated: %+v", pub.events)
	}

	_, err = client.MergeProducts(ctx, mustStruct(t, map[string]interface{}{"keep_id": 1, "drop_id": 1}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", err)
	}
	_, err = client.MergeProducts(ctx, mustStruct(t, map[string]interface{}{"keep_id": 1, "drop_id": 2}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("want NotFound for an already merged product, got %v", err)
	}
}

func TestSetShopURL(t *testing.T) {
	client, db, _ := newAdminClient(t)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "a"})
	ctx := context.Background()

	_, err := client.SetShopURL(ctx, mustStruct(t, map[string]interface{}{"product_id": 1, "shop_id": 2, "url": "https://shop.example/a"}))
	if err != nil {
		t.Fatal(err)
	}
	if sp := testutil.GetShopPrice(t, db, 1, 2); sp.URL != "https://shop.example/a" || sp.UpdatedAt != nil {
		t.Fatalf("unexpected record %+v", sp)
	}

	_, err = client.SetShopURL(ctx, mustStruct(t, map[string]interface{}{"product_id": 5, "shop_id": 2, "url": "x"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("want NotFound, got %v", err)
	}
	_, err = client.SetShopURL(ctx, mustStruct(t, map[string]interface{}{"product_id": 1, "shop_id": 2}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", err)
	}
}

func TestFindDuplicates(t *testing.T) {
	client, db, _ := newAdminClient(t)
	cat := testutil.Int64(10)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "Yerba Mate Playadito 1kg", CategoryID: cat})
	testutil.InsertProduct(t, db, model.Product{ID: 2, Name: "Yerba Mate Playadito 1 kg", CategoryID: cat})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 1})
	ctx := context.Background()

	out, err := client.FindDuplicates(ctx, mustStruct(t, map[string]interface{}{"category_id": 10, "shop_id": 1}))
	if err != nil {
		t.Fatal(err)
	}
	var resp FindDuplicatesResponse
	if err := pb.Decode(out, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Product.ID != 1 ||
		len(resp.Candidates[0].Matches) != 1 || resp.Candidates[0].Matches[0].Product.ID != 2 {
		t.Fatalf("unexpected candidates %+v", resp.Candidates)
	}

	_, err = client.FindDuplicates(ctx, mustStruct(t, map[string]interface{}{"shop_id": 1}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", err)
	}
}
