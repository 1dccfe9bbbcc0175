// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять игроку понятные сообщения.
package common

import "errors"

// Ошибки игроков (баланс, переводы, прокачка)
var (
	// ErrNotRegistered — игрок ещё не начал игру командой «начать»
	ErrNotRegistered = errors.New("игрок не зарегистрирован")
	// ErrPlayerNotFound — игрок не найден в базе
	ErrPlayerNotFound = errors.New("игрок не найден")
	// ErrInsufficientBalance — недостаточно монет на счёте
	ErrInsufficientBalance = errors.New("недостаточно монет на счёте")
	// ErrSelfTransfer — попытка перевести монеты самому себе
	ErrSelfTransfer = errors.New("нельзя переводить монеты самому себе")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrTransferTooSmall — перевод меньше минимальных 10 монет
	ErrTransferTooSmall = errors.New("минимальная сумма перевода 10 монет")
	// ErrLiftCooldown — штанга ещё не остыла после прошлого подхода
	ErrLiftCooldown = errors.New("слишком рано, отдохните между подходами")
	// ErrMaxDumbbell — куплена последняя гантеля из линейки
	ErrMaxDumbbell = errors.New("у вас уже максимальная гантеля")
	// ErrInvalidNickname — ник не прошёл валидацию
	ErrInvalidNickname = errors.New("недопустимый игровой ник")
	// ErrNicknameTaken — такой ник уже занят другим игроком
	ErrNicknameTaken = errors.New("этот ник уже занят")
	// ErrBanned — игрок заблокирован и не может играть
	ErrBanned = errors.New("игрок заблокирован")
)

// Ошибки кланов
var (
	// ErrClanNotFound — клан не найден
	ErrClanNotFound = errors.New("клан не найден")
	// ErrAlreadyInClan — игрок уже состоит в клане
	ErrAlreadyInClan = errors.New("вы уже состоите в клане")
	// ErrNotInClan — игрок не состоит в клане
	ErrNotInClan = errors.New("вы не состоите в клане")
	// ErrNotClanLeader — операция доступна только владельцу клана
	ErrNotClanLeader = errors.New("вы не владелец клана")
	// ErrNotClanOfficer — операция доступна владельцу и заместителям
	ErrNotClanOfficer = errors.New("недостаточно прав в клане")
	// ErrClanTagTaken — тег клана уже занят
	ErrClanTagTaken = errors.New("клан с таким тегом уже существует")
	// ErrClanNameTaken — название клана уже занято
	ErrClanNameTaken = errors.New("клан с таким названием уже существует")
	// ErrInvalidClanTag — тег не из трёх заглавных латинских букв
	ErrInvalidClanTag = errors.New("тег должен состоять из 3 заглавных латинских букв")
	// ErrInvalidClanName — название короче 3 или длиннее 20 символов
	ErrInvalidClanName = errors.New("название клана должно быть от 3 до 20 символов")
	// ErrClanFull — достигнут лимит участников клана
	ErrClanFull = errors.New("в клане нет свободных мест")
	// ErrInsufficientTreasury — в казне клана не хватает монет
	ErrInsufficientTreasury = errors.New("в казне клана недостаточно монет")
	// ErrKickPeer — заместитель не может кикнуть другого заместителя
	ErrKickPeer = errors.New("нельзя исключить участника с такими же правами")
	// ErrClanMaxLevel — клан уже достиг максимального уровня
	ErrClanMaxLevel = errors.New("клан уже максимального уровня")
	// ErrNoConfirmation — разрушительная операция требует подтверждения
	ErrNoConfirmation = errors.New("операция требует подтверждения")
)

// Ошибки промокодов
var (
	// ErrPromoNotFound — промокод не существует
	ErrPromoNotFound = errors.New("промокод не найден")
	// ErrPromoExhausted — активации промокода закончились
	ErrPromoExhausted = errors.New("активации промокода закончились")
	// ErrPromoExpired — срок действия промокода истёк
	ErrPromoExpired = errors.New("срок действия промокода истёк")
	// ErrPromoExists — промокод с таким названием уже создан
	ErrPromoExists = errors.New("промокод с таким названием уже существует")
	// ErrPromoLimit — награда превышает лимит для уровня администратора
	ErrPromoLimit = errors.New("награда превышает допустимый лимит")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrPermissionDenied — уровень администратора недостаточен для действия
	ErrPermissionDenied = errors.New("недостаточный уровень администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrRequestNotFound — запрос модерации не найден
	ErrRequestNotFound = errors.New("запрос не найден")
	// ErrAlreadyProcessed — запрос уже одобрен или отклонён
	ErrAlreadyProcessed = errors.New("запрос уже обработан")
	// ErrBroadcastLimit — исчерпан дневной лимит рассылок
	ErrBroadcastLimit = errors.New("дневной лимит рассылок исчерпан")
	// ErrAccessNotFound — выданный доступ к информации не найден
	ErrAccessNotFound = errors.New("доступ не найден")
)
