package server

import (
	"context"
	"encoding/binary"

	"github.com/mxd-net/mxd-core/common/errors"
	"github.com/mxd-net/mxd-core/common/session"
	"github.com/mxd-net/mxd-core/datastore"
	"github.com/mxd-net/mxd-core/privilege"
	"github.com/mxd-net/mxd-core/protocol"
)

// errLoginRejected reports an unknown user. It maps to the same reply code as
// auth.ErrPasswordMismatch, so the reply does not reveal which one failed.
var errLoginRejected = errors.New("login rejected")

func (r *Router) handleLogin(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params,
		[]protocol.FieldID{protocol.FieldLogin, protocol.FieldPassword},
		[]protocol.FieldID{protocol.FieldUserName, protocol.FieldUserIcon, protocol.FieldOptions},
	); err != nil {
		return nil, err
	}

	login, err := protocol.RequiredParamString(params, protocol.FieldLogin)
	if err != nil {
		return nil, err
	}
	password, err := protocol.RequiredParamString(params, protocol.FieldPassword)
	if err != nil {
		return nil, err
	}

	user, err := r.store.UserByName(ctx, login)
	if errors.Cause(err) == datastore.ErrNotFound {
		errors.LogInfo(ctx, "login failed for unknown user from ", sess.Peer)
		return nil, errLoginRejected
	}
	if err != nil {
		return nil, err
	}

	if err := r.hasher.Verify(password, user.PasswordHash); err != nil {
		errors.LogInfo(ctx, "login failed for ", login, " from ", sess.Peer)
		return nil, err
	}

	sess.Authenticate(user.ID, user.Username, privilege.DefaultUser())
	applyUserInfo(sess, params)
	if sess.Nickname == "" {
		sess.Nickname = user.Username
	}
	errors.LogInfo(ctx, "user ", login, " logged in from ", sess.Peer)

	var uid [4]byte
	binary.BigEndian.PutUint32(uid[:], uint32(user.ID))
	var version [2]byte
	binary.BigEndian.PutUint16(version[:], protocol.Version)

	payload, err := protocol.EncodeParams([]protocol.Param{
		{ID: protocol.FieldVersion, Value: version[:]},
		{ID: protocol.FieldUserID, Value: uid[:]},
	})
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

func (r *Router) handlePing(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, nil), nil
}

// handleClientUserInfo covers Agreed and SetClientUserInfo: both update the
// session's display attributes and preference flags.
func (r *Router) handleClientUserInfo(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params, nil, []protocol.FieldID{
		protocol.FieldUserName,
		protocol.FieldUserIcon,
		protocol.FieldOptions,
		protocol.FieldAutoResponse,
	}); err != nil {
		return nil, err
	}

	applyUserInfo(sess, params)
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, nil), nil
}

// applyUserInfo copies display attributes and preference flags from the
// params into the session.
func applyUserInfo(sess *session.Session, params []protocol.Param) {
	if name, found, err := protocol.FirstParamString(params, protocol.FieldUserName); found && err == nil {
		sess.Nickname = name
	}
	if value, found := protocol.FirstParam(params, protocol.FieldUserIcon); found && len(value) > 0 {
		icon := int32(0)
		for _, b := range value {
			icon = icon<<8 | int32(b)
		}
		sess.IconID = &icon
	}
	if value, found := protocol.FirstParam(params, protocol.FieldOptions); found && len(value) > 0 {
		sess.Flags = session.ConnectionFlags(value[len(value)-1])
	}
	if text, found, err := protocol.FirstParamString(params, protocol.FieldAutoResponse); found && err == nil {
		sess.AutoResponse = text
	}
}

func (r *Router) handleGetFileNameList(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params, nil, nil); err != nil {
		return nil, err
	}

	// The privilege gate guarantees authentication before this point.
	files, err := r.store.FilesForUser(ctx, *sess.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]protocol.Param, 0, len(files))
	for _, f := range files {
		out = append(out, protocol.Param{ID: protocol.FieldFileName, Value: []byte(f.Name)})
	}
	payload, err := protocol.EncodeParams(out)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

func (r *Router) handleGetUserNameList(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params, nil, nil); err != nil {
		return nil, err
	}

	names := r.registry.VisibleNames()
	out := make([]protocol.Param, 0, len(names))
	for _, name := range names {
		out = append(out, protocol.Param{ID: protocol.FieldUserName, Value: []byte(name)})
	}
	payload, err := protocol.EncodeParams(out)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

func (r *Router) handleDownloadBanner(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	if len(r.banner) == 0 {
		return protocol.NewReply(&req.Header, protocol.ErrCodeOK, nil), nil
	}
	payload, err := protocol.EncodeParams([]protocol.Param{
		{ID: protocol.FieldData, Value: r.banner},
	})
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

func (r *Router) handleNewsCategoryNameList(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params, nil, []protocol.FieldID{protocol.FieldNewsPath}); err != nil {
		return nil, err
	}

	path, _, err := protocol.FirstParamString(params, protocol.FieldNewsPath)
	if err != nil {
		return nil, err
	}

	names, err := r.store.NamesAtPath(ctx, datastore.SplitPath(path))
	if err != nil {
		return nil, err
	}

	out := make([]protocol.Param, 0, len(names))
	for _, name := range names {
		out = append(out, protocol.Param{ID: protocol.FieldNewsCategory, Value: []byte(name)})
	}
	payload, err := protocol.EncodeParams(out)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

// resolveNewsPath resolves a request's news path parameter to a category id.
// Article operations require a non-empty path.
func (r *Router) resolveNewsPath(ctx context.Context, params []protocol.Param) (int64, error) {
	path, err := protocol.RequiredParamString(params, protocol.FieldNewsPath)
	if err != nil {
		return 0, err
	}
	segments := datastore.SplitPath(path)
	if len(segments) == 0 {
		return 0, errors.New("empty news path").Base(datastore.ErrPathNotFound)
	}
	return r.store.ResolveCategory(ctx, segments)
}

func (r *Router) handleNewsArticleNameList(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params, []protocol.FieldID{protocol.FieldNewsPath}, nil); err != nil {
		return nil, err
	}

	categoryID, err := r.resolveNewsPath(ctx, params)
	if err != nil {
		return nil, err
	}
	titles, err := r.store.ArticleTitles(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	out := make([]protocol.Param, 0, len(titles))
	for _, title := range titles {
		out = append(out, protocol.Param{ID: protocol.FieldNewsArticle, Value: []byte(title)})
	}
	payload, err := protocol.EncodeParams(out)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

func (r *Router) handleNewsArticleData(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params,
		[]protocol.FieldID{protocol.FieldNewsPath, protocol.FieldNewsArticleID}, nil); err != nil {
		return nil, err
	}

	categoryID, err := r.resolveNewsPath(ctx, params)
	if err != nil {
		return nil, err
	}
	articleID, err := protocol.RequiredParamInt32(params, protocol.FieldNewsArticleID)
	if err != nil {
		return nil, err
	}

	article, err := r.store.Article(ctx, categoryID, int64(articleID))
	if errors.Cause(err) == datastore.ErrNotFound {
		return nil, errors.New("no article ", articleID, " under category ", categoryID).Base(datastore.ErrPathNotFound)
	}
	if err != nil {
		return nil, err
	}

	payload, err := protocol.EncodeParams([]protocol.Param{
		{ID: protocol.FieldNewsTitle, Value: []byte(article.Title)},
		{ID: protocol.FieldNewsDataFlavor, Value: []byte(article.DataFlavor)},
		{ID: protocol.FieldNewsArticleData, Value: []byte(article.Data)},
	})
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}

func (r *Router) handlePostNewsArticle(ctx context.Context, sess *session.Session, req *protocol.Transaction) (*protocol.Transaction, error) {
	params, err := protocol.DecodeParams(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := protocol.ValidatePayload(params,
		[]protocol.FieldID{protocol.FieldNewsPath, protocol.FieldNewsTitle},
		[]protocol.FieldID{protocol.FieldNewsArticleFlags, protocol.FieldNewsDataFlavor, protocol.FieldNewsArticleData},
	); err != nil {
		return nil, err
	}

	categoryID, err := r.resolveNewsPath(ctx, params)
	if err != nil {
		return nil, err
	}
	title, err := protocol.RequiredParamString(params, protocol.FieldNewsTitle)
	if err != nil {
		return nil, err
	}
	flags, _, err := protocol.FirstParamInt32(params, protocol.FieldNewsArticleFlags)
	if err != nil {
		return nil, err
	}
	flavor, _, err := protocol.FirstParamString(params, protocol.FieldNewsDataFlavor)
	if err != nil {
		return nil, err
	}
	data, _, err := protocol.FirstParamString(params, protocol.FieldNewsArticleData)
	if err != nil {
		return nil, err
	}

	poster := sess.Nickname
	if poster == "" {
		poster = sess.Username
	}
	id, err := r.store.CreateArticle(ctx, &datastore.NewsArticle{
		CategoryID: categoryID,
		Title:      title,
		Poster:     poster,
		Flags:      flags,
		DataFlavor: flavor,
		Data:       data,
	})
	if err != nil {
		return nil, err
	}

	var idBytes [4]byte
	binary.BigEndian.PutUint32(idBytes[:], uint32(id))
	payload, err := protocol.EncodeParams([]protocol.Param{
		{ID: protocol.FieldNewsArticleID, Value: idBytes[:]},
	})
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(&req.Header, protocol.ErrCodeOK, payload), nil
}
