package db

import (
	"github.com/nickyhof/CommitKV/query"
	"github.com/nickyhof/CommitKV/wire"
)

func keyOf(target query.Node) (string, *wire.Error) {
	ident, ok := target.(query.Identifier)
	if !ok {
		return "", invalidQuery("key must be an identifier")
	}
	return ident.Name, nil
}

func documentOf(value query.Node) (any, *wire.Error) {
	literal, ok := value.(query.Literal)
	if !ok {
		return nil, invalidQuery("value must be a json object")
	}
	return literal.Value, nil
}

func (e *Executor) insert(value, target query.Node) (wire.Response, *wire.Error) {
	key, werr := keyOf(target)
	if werr != nil {
		return wire.Response{}, werr
	}
	doc, werr := documentOf(value)
	if werr != nil {
		return wire.Response{}, werr
	}

	if err := e.storage.Insert(key, doc); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}

func (e *Executor) update(value, target query.Node) (wire.Response, *wire.Error) {
	key, werr := keyOf(target)
	if werr != nil {
		return wire.Response{}, werr
	}
	doc, werr := documentOf(value)
	if werr != nil {
		return wire.Response{}, werr
	}

	if err := e.storage.Update(key, doc); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}

func (e *Executor) get(target query.Node) (wire.Response, *wire.Error) {
	if target == nil {
		return wire.Response{}, invalidQuery("get must have an expression")
	}
	key, werr := keyOf(target)
	if werr != nil {
		return wire.Response{}, werr
	}

	value, err := e.storage.Get(key)
	if err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(value), nil
}

func (e *Executor) delete(target query.Node) (wire.Response, *wire.Error) {
	if target == nil {
		return wire.Response{}, invalidQuery("delete must have an expression")
	}
	key, werr := keyOf(target)
	if werr != nil {
		return wire.Response{}, werr
	}

	if err := e.storage.Delete(key); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}

func (e *Executor) list(target query.Node) (wire.Response, *wire.Error) {
	if target != nil {
		return wire.Response{}, invalidQuery("list must not have an expression")
	}

	keys, err := e.storage.ListKeys()
	if err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(keys), nil
}
