package usecase_test

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/i18n"
	"timeline/internal/timeline/config"
	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/testutil"
	"timeline/internal/timeline/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *mockPostRepository) ListRecent(ctx context.Context, limit int64) ([]*model.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Entry), args.Error(1)
}

type PostUsecaseTestSuite struct {
	suite.Suite
	posts   *mockPostRepository
	images  *testutil.MemoryImageStore
	bus     *eventbus.EventBus
	cfg     *config.Config
	usecase *usecase.PostUsecase
	author  model.Author
	now     time.Time
}

func (suite *PostUsecaseTestSuite) SetupTest() {
	suite.posts = new(mockPostRepository)
	suite.images = testutil.NewMemoryImageStore()
	suite.bus = eventbus.NewEventBus(nil)
	suite.cfg = config.DefaultConfig()
	suite.cfg.DisplayTimezone = "UTC"
	suite.now = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	suite.author = model.Author{ID: "user-1", Name: "Alice"}
	suite.usecase = usecase.NewPostUsecase(suite.posts, suite.images, suite.bus, suite.cfg, nil).
		WithClock(func() time.Time { return suite.now })
}

func (suite *PostUsecaseTestSuite) TestCreatePost_TextOnly() {
	ctx := context.Background()
	suite.posts.On("Create", ctx, mock.MatchedBy(func(p *model.Post) bool {
		return p.Body == "hello" && p.UserID == "user-1" && p.ImageFilename == "" && p.ID != ""
	})).Return(nil).Once()

	view, err := suite.usecase.CreatePost(ctx, usecase.CreatePostRequest{Author: suite.author, Body: "  hello \n"})

	suite.Require().NoError(err)
	suite.Equal("hello", view.Text)
	suite.Equal("Alice", view.UserName)
	suite.Equal("2024年03月09日 14:05", view.CreatedAt)
	suite.Empty(view.ImageFileURL)
	suite.Equal(0, suite.images.Len())
	suite.posts.AssertExpectations(suite.T())
}

func (suite *PostUsecaseTestSuite) TestCreatePost_BodyValidation() {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"empty", "", i18n.KeyPostBodyRequired},
		{"whitespace only", " \r\n\t ", i18n.KeyPostBodyRequired},
		{"too long", strings.Repeat("あ", 1001), i18n.KeyPostBodyTooLong},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{Author: suite.author, Body: tt.body})

			suite.Require().Error(err)
			suite.True(sharederrors.IsValidation(err))
			fields := sharederrors.FieldErrors(err)
			suite.Require().Len(fields, 1)
			suite.Equal("body", fields[0].Field)
			suite.Equal(tt.key, fields[0].Key)
		})
	}
	suite.posts.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *PostUsecaseTestSuite) TestCreatePost_MaxLengthCountsRunes() {
	body := strings.Repeat("あ", 1000)
	suite.posts.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{Author: suite.author, Body: body})

	suite.NoError(err)
}

func (suite *PostUsecaseTestSuite) TestCreatePost_InvalidImageStoresNothing() {
	_, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{
		Author:      suite.author,
		Body:        "",
		ImageBase64: "data:image/png;base64,@@@",
	})

	suite.Require().Error(err)
	fields := sharederrors.FieldErrors(err)
	suite.Len(fields, 2)
	suite.Equal(0, suite.images.Len())
	suite.posts.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *PostUsecaseTestSuite) TestCreatePost_WithImage() {
	suite.posts.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	view, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{
		Author:      suite.author,
		Body:        "with picture",
		ImageBase64: encoded,
	})

	suite.Require().NoError(err)
	suite.Require().Equal(1, suite.images.Len())
	for name, data := range suite.images.Images {
		suite.Regexp(regexp.MustCompile(`^1709993100_[0-9a-f]{32}\.png$`), name)
		suite.Equal(pngHeader, data)
		suite.Equal("image/png", suite.images.Types[name])
		suite.Equal("/upload/image/"+name, view.ImageFileURL)
	}
}

func (suite *PostUsecaseTestSuite) TestCreatePost_RepositoryFailureRemovesImage() {
	suite.posts.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	_, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{
		Author:      suite.author,
		Body:        "lost",
		ImageBase64: base64.StdEncoding.EncodeToString(pngHeader),
	})

	suite.Require().Error(err)
	suite.True(sharederrors.IsInfrastructure(err))
	suite.ErrorIs(err, sharederrors.ErrStoreUnavailable)
	suite.Equal(0, suite.images.Len())
}

func (suite *PostUsecaseTestSuite) TestCreatePost_ImageStoreFailure() {
	suite.images.Err = errors.New("disk full")

	_, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{
		Author:      suite.author,
		Body:        "no room",
		ImageBase64: base64.StdEncoding.EncodeToString(pngHeader),
	})

	suite.Require().Error(err)
	suite.True(sharederrors.IsInfrastructure(err))
	suite.posts.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *PostUsecaseTestSuite) TestCreatePost_RequiresAuthor() {
	_, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{Body: "anonymous"})

	suite.Require().Error(err)
	suite.True(sharederrors.IsAuthentication(err))
}

func (suite *PostUsecaseTestSuite) TestCreatePost_PublishesEvent() {
	suite.posts.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	var (
		mu       sync.Mutex
		received []eventbus.Event
	)
	unsubscribe := suite.bus.Subscribe(eventbus.EventTypePostCreated, func(ctx context.Context, event eventbus.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})
	defer unsubscribe()

	view, err := suite.usecase.CreatePost(context.Background(), usecase.CreatePostRequest{Author: suite.author, Body: "<b>hi</b>"})
	suite.Require().NoError(err)

	mu.Lock()
	defer mu.Unlock()
	suite.Require().Len(received, 1)
	published, ok := received[0].Data.(usecase.EntryView)
	suite.Require().True(ok)
	suite.Equal(view.ID, published.ID)
	suite.Equal("&lt;b&gt;hi&lt;/b&gt;", published.Body)
}

func (suite *PostUsecaseTestSuite) TestListTimeline() {
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []*model.Entry{
		{
			Post: model.Post{
				ID:            "p2",
				UserID:        "user-2",
				Body:          "line1\nline2 & <tag>",
				ImageFilename: "1_abc.png",
				CreatedAt:     created,
			},
			Author: model.Author{ID: "user-2", Name: "Bob", IconFilename: "icon.jpg"},
		},
		{
			Post:   model.Post{ID: "p1", UserID: "user-1", Body: "first", CreatedAt: created.Add(-time.Hour)},
			Author: suite.author,
		},
	}
	suite.posts.On("ListRecent", ctx, int64(100)).Return(entries, nil).Once()

	views, err := suite.usecase.ListTimeline(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(views, 2)
	suite.Equal("p2", views[0].ID)
	suite.Equal("line1<br />\nline2 &amp; &lt;tag&gt;", views[0].Body)
	suite.Equal("2024年01月02日 03:04", views[0].CreatedAt)
	suite.Equal("/upload/image/1_abc.png", views[0].ImageFileURL)
	suite.Equal("/upload/image/icon.jpg", views[0].UserIconFileURL)
	suite.Equal("/profile?user_id=user-2", views[0].UserProfileURL)
	suite.Empty(views[1].UserIconFileURL)
	suite.Empty(views[1].ImageFileURL)
}

func (suite *PostUsecaseTestSuite) TestListTimeline_Empty() {
	suite.posts.On("ListRecent", mock.Anything, int64(100)).Return([]*model.Entry{}, nil).Once()

	views, err := suite.usecase.ListTimeline(context.Background())

	suite.NoError(err)
	suite.NotNil(views)
	suite.Empty(views)
}

func (suite *PostUsecaseTestSuite) TestListTimeline_StoreFailure() {
	suite.posts.On("ListRecent", mock.Anything, int64(100)).Return(nil, errors.New("server selection timeout")).Once()

	_, err := suite.usecase.ListTimeline(context.Background())

	suite.Require().Error(err)
	suite.True(sharederrors.IsInfrastructure(err))
	appErr, ok := sharederrors.AsAppError(err)
	suite.Require().True(ok)
	suite.Equal(i18n.KeyTimelineLoadFailed, appErr.MessageKey)
}

func TestPostUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(PostUsecaseTestSuite))
}

func TestCreatePost_WithInMemoryRepository(t *testing.T) {
	posts := testutil.NewInMemoryPostRepository()
	posts.AddAuthor(model.Author{ID: "u1", Name: "Carol"})
	uc := usecase.NewPostUsecase(posts, testutil.NewMemoryImageStore(), nil, config.DefaultConfig(), nil)

	_, err := uc.CreatePost(context.Background(), usecase.CreatePostRequest{Author: model.Author{ID: "u1", Name: "Carol"}, Body: "one"})
	require.NoError(t, err)

	views, err := uc.ListTimeline(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Carol", views[0].UserName)
	assert.Equal(t, "one", views[0].Body)
}
