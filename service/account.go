package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"writing_marketplace/cache"
	"writing_marketplace/gateway"
	"writing_marketplace/helper"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Session is what a successful sign-in hands back to the transport layer.
type Session struct {
	Token     string            `json:"-"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Account   model.AccountView `json:"account"`
}

type AccountService struct {
	db        *gorm.DB
	tokens    *helper.TokenManager
	store     cache.Store
	providers map[string]gateway.OAuthProvider
	files     helper.Uploader
	now       func() time.Time
	log       *zap.Logger
}

func NewAccountService(
	db *gorm.DB,
	tokens *helper.TokenManager,
	store cache.Store,
	providers []gateway.OAuthProvider,
	files helper.Uploader,
	log *zap.Logger,
) *AccountService {
	byName := make(map[string]gateway.OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AccountService{
		db:        db,
		tokens:    tokens,
		store:     store,
		providers: byName,
		files:     files,
		now:       time.Now,
		log:       log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) SignUp(ctx context.Context, in model.SignUpInput) (*Session, error) {
	email := normalizeEmail(in.Email)

	var exists int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := helper.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := model.User{
		Profile: model.Profile{
			Name:     strings.TrimSpace(in.Name),
			Email:    email,
			Password: hash,
			Phone:    in.Phone,
			Provider: model.ProviderLocal,
		},
		Country: in.Country,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	s.log.Info("client signed up", zap.String("user_id", user.ID.String()))
	return s.issue(user.View())
}

// SignIn checks a password against the account table of the given role.
func (s *AccountService) SignIn(ctx context.Context, in model.SignInInput, role model.Role) (*Session, error) {
	email := normalizeEmail(in.Email)
	view, hash, err := s.credentials(ctx, email, role)
	if errors.Is(err, ErrAccountNotFound) {
		// same answer as a wrong password
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helper.CheckPasswordHash(in.Password, hash) {
		return nil, ErrInvalidCredentials
	}
	if view.Active != nil && !*view.Active {
		return nil, ErrAccountInactive
	}
	return s.issue(view)
}

func (s *AccountService) credentials(ctx context.Context, email string, role model.Role) (model.AccountView, string, error) {
	db := s.db.WithContext(ctx).Where("email = ?", email)
	var err error
	switch role {
	case model.RoleClient:
		var u model.User
		if err = db.First(&u).Error; err == nil {
			return u.View(), u.Password, nil
		}
	case model.RoleWriter:
		var w model.Writer
		if err = db.First(&w).Error; err == nil {
			return w.View(), w.Password, nil
		}
	case model.RoleAdmin:
		var a model.Administrator
		if err = db.First(&a).Error; err == nil {
			return a.View(), a.Password, nil
		}
	default:
		return model.AccountView{}, "", ErrForbidden
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AccountView{}, "", ErrAccountNotFound
	}
	return model.AccountView{}, "", err
}

// OAuthSignIn resolves the provider identity to an account. Clients are
// upserted by email; administrators must already exist.
func (s *AccountService) OAuthSignIn(ctx context.Context, provider string, in model.OAuthSignInInput, role model.Role) (*Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	profile, err := p.FetchProfile(ctx, in)
	if errors.Is(err, gateway.ErrOAuthNoEmail) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.log.Error("oauth profile fetch failed", zap.String("provider", provider), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	switch role {
	case model.RoleAdmin:
		var admin model.Administrator
		err := s.db.WithContext(ctx).Where("email = ?", profile.Email).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		if err != nil {
			return nil, err
		}
		return s.issue(admin.View())
	case model.RoleClient:
		user, err := s.upsertOAuthUser(ctx, profile)
		if err != nil {
			return nil, err
		}
		return s.issue(user.View())
	}
	return nil, ErrForbidden
}

func (s *AccountService) upsertOAuthUser(ctx context.Context, profile *gateway.OAuthProfile) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", profile.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = model.User{Profile: model.Profile{
				Name:       profile.Name,
				Email:      profile.Email,
				AvatarUrl:  profile.AvatarURL,
				Provider:   profile.Provider,
				ProviderID: profile.ProviderID,
			}}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if user.ProviderID == "" {
			updates["provider_id"] = profile.ProviderID
		}
		if user.AvatarUrl == "" && profile.AvatarURL != "" {
			updates["avatar_url"] = profile.AvatarURL
		}
		if user.Name == "" && profile.Name != "" {
			updates["name"] = profile.Name
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) issue(view model.AccountView) (*Session, error) {
	id, err := uuid.Parse(view.ID)
	if err != nil {
		return nil, err
	}
	token, claims, err := s.tokens.Issue(model.TokenClaim{AccountID: id, Role: view.Role, Email: view.Email})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Account: view}, nil
}

// SignOut revokes the token id until the token would have expired anyway.
func (s *AccountService) SignOut(ctx context.Context, claims *helper.SessionClaims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.store.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.log.Error("revoke session", zap.String("jti", claims.ID), zap.Error(err))
		return err
	}
	return nil
}

// Profile returns the caller's own account.
func (s *AccountService) Profile(ctx context.Context) (*model.AccountView, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, caller.AccountID, caller.Role)
}

func (s *AccountService) find(ctx context.Context, id uuid.UUID, role model.Role) (*model.AccountView, error) {
	db := s.db.WithContext(ctx)
	var (
		view model.AccountView
		err  error
	)
	switch role {
	case model.RoleClient:
		var u model.User
		if err = db.First(&u, "id = ?", id).Error; err == nil {
			view = u.View()
		}
	case model.RoleWriter:
		var w model.Writer
		if err = db.First(&w, "id = ?", id).Error; err == nil {
			view = w.View()
		}
	case model.RoleAdmin:
		var a model.Administrator
		if err = db.First(&a, "id = ?", id).Error; err == nil {
			view = a.View()
		}
	default:
		return nil, ErrForbidden
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateProfile applies the non-empty fields of in, plus an optional avatar
// upload, to the caller's own account row.
func (s *AccountService) UpdateProfile(ctx context.Context, in model.UpdateProfileInput, avatar *Attachment) (*model.AccountView, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if avatar != nil {
		key := helper.ObjectKey("avatars/"+caller.AccountID.String(), avatar.Filename, s.now())
		url, err := s.files.Upload(ctx, key, avatar.Body, avatar.Size, avatar.ContentType)
		if err != nil {
			s.log.Error("avatar upload failed", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrProvider, err)
		}
		in.AvatarUrl = url
	}

	var row any
	switch caller.Role {
	case model.RoleClient:
		row = &model.User{}
	case model.RoleWriter:
		row = &model.Writer{}
	case model.RoleAdmin:
		row = &model.Administrator{}
	default:
		return nil, ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(row, "id = ?", caller.AccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := copier.CopyWithOption(row, &in, copier.Option{IgnoreEmpty: true}); err != nil {
			return fmt.Errorf("copy profile input: %w", err)
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, err
	}
	return s.find(ctx, caller.AccountID, caller.Role)
}

func (s *AccountService) ListClients(ctx context.Context, page model.Pagination) (*model.ResponseCustom, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	var rows []model.User
	return listAccounts(s.db.WithContext(ctx).Model(&model.User{}), page, &rows, func() []model.AccountView {
		out := make([]model.AccountView, len(rows))
		for i := range rows {
			out[i] = rows[i].View()
		}
		return out
	})
}

// ListWriters lists every writer for admins. Other callers only see active
// writers.
func (s *AccountService) ListWriters(ctx context.Context, page model.Pagination) (*model.ResponseCustom, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&model.Writer{})
	if caller.Role != model.RoleAdmin {
		query = query.Where("active = ?", true)
	}
	var rows []model.Writer
	return listAccounts(query, page, &rows, func() []model.AccountView {
		out := make([]model.AccountView, len(rows))
		for i := range rows {
			out[i] = rows[i].View()
		}
		return out
	})
}

func (s *AccountService) ListAdministrators(ctx context.Context, page model.Pagination) (*model.ResponseCustom, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	var rows []model.Administrator
	return listAccounts(s.db.WithContext(ctx).Model(&model.Administrator{}), page, &rows, func() []model.AccountView {
		out := make([]model.AccountView, len(rows))
		for i := range rows {
			out[i] = rows[i].View()
		}
		return out
	})
}

func (s *AccountService) GetClient(ctx context.Context, id uuid.UUID) (*model.AccountView, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.find(ctx, id, model.RoleClient)
}

func (s *AccountService) CreateWriter(ctx context.Context, in model.CreateWriterInput) (*model.AccountView, error) {
	if _, err := requireRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	var exists int64
	if err := s.db.WithContext(ctx).Model(&model.Writer{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := helper.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	writer := model.Writer{
		Profile: model.Profile{
			Name:     strings.TrimSpace(in.Name),
			Email:    email,
			Password: hash,
			Phone:    in.Phone,
			Provider: model.ProviderLocal,
		},
		Category: in.Category,
		Bio:      in.Bio,
		Subjects: in.Subjects,
		Active:   true,
	}
	if writer.Category == "" {
		writer.Category = "standard"
	}
	if err := s.db.WithContext(ctx).Create(&writer).Error; err != nil {
		return nil, err
	}
	s.log.Info("writer created", zap.String("writer_id", writer.ID.String()))
	view := writer.View()
	return &view, nil
}

func listAccounts(query *gorm.DB, page model.Pagination, dest any, views func() []model.AccountView) (*model.ResponseCustom, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	limit, p := utils.NormalizePage(page.Limit, page.Page)
	if err := utils.ApplyPagination(query.Order("created_at desc"), limit, p).Find(dest).Error; err != nil {
		return nil, err
	}
	return &model.ResponseCustom{Rows: views(), Limit: limit, Page: p, TotalCount: total}, nil
}
