// Package players — dumbbells.go содержит линейку гантелей.
// Двадцать уровней, каждый со своей ценой, доходом и приростом силы.
package players

// Dumbbell описывает одну гантелю из линейки магазина.
type Dumbbell struct {
	Level  int    // Уровень (1..20)
	Name   string // Название для вывода
	Weight string // Вес для вывода
	Price  int64  // Цена покупки в монетах
	Income int64  // Доход за одно поднятие
	Power  int64  // Прирост силы за одно поднятие
}

// MaxDumbbellLevel — последняя гантеля линейки.
const MaxDumbbellLevel = 20

// dumbbells — линейка из 20 гантелей. Первая выдаётся при регистрации бесплатно.
var dumbbells = []Dumbbell{
	{1, "Гантеля 1кг", "1кг", 0, 1, 1},
	{2, "Гантеля 2кг", "2кг", 10, 2, 2},
	{3, "Гантеля 3кг", "3кг", 25, 3, 3},
	{4, "Гантеля 4кг", "4кг", 50, 4, 4},
	{5, "Гантеля 5кг", "5кг", 100, 5, 5},
	{6, "Гантеля 6кг", "6кг", 150, 6, 6},
	{7, "Гантеля 7кг", "7кг", 175, 7, 7},
	{8, "Гантеля 8кг", "8кг", 200, 8, 8},
	{9, "Гантеля 9кг", "9кг", 215, 9, 9},
	{10, "Гантеля 10кг", "10кг", 250, 10, 10},
	{11, "Гантеля 11кг", "11кг", 300, 11, 11},
	{12, "Гантеля 12.5кг", "12.5кг", 350, 15, 12},
	{13, "Гантеля 15кг", "15кг", 400, 20, 15},
	{14, "Гантеля 17.5кг", "17.5кг", 475, 25, 17},
	{15, "Гантеля 20кг", "20кг", 550, 30, 20},
	{16, "Гантеля 22.5кг", "22.5кг", 650, 35, 22},
	{17, "Гантеля 25кг", "25кг", 750, 40, 25},
	{18, "Гантеля 27.5кг", "27.5кг", 850, 45, 27},
	{19, "Гантеля 30кг", "30кг", 1000, 50, 30},
	{20, "Гантеля 35кг", "35кг", 1100, 55, 35},
}

// DumbbellByLevel возвращает гантелю указанного уровня.
func DumbbellByLevel(level int) (Dumbbell, bool) {
	if level < 1 || level > MaxDumbbellLevel {
		return Dumbbell{}, false
	}
	return dumbbells[level-1], true
}

// AllDumbbells возвращает всю линейку для вывода магазина.
func AllDumbbells() []Dumbbell {
	out := make([]Dumbbell, len(dumbbells))
	copy(out, dumbbells)
	return out
}
